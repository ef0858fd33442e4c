package conversation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/apperr"
)

var ErrNotFound = errors.New("conversation not found")

const conversationColumns = `id, platform, external_user_id, started_at, last_message_at, message_count`

// Store is the only writer of conversations and messages. The pipeline and
// the admin surface both read through it.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// AcquireLock takes a cross-process advisory lock on the conversation key.
// In-process serialization is not enough: the api binary and any standalone
// worker consume the same queue, so two consumers can otherwise interleave
// one conversation's pipeline. The lock is held on a dedicated pooled
// connection until release is called.
func (s *Store) AcquireLock(ctx context.Context, key string) (release func(), err error) {
	const op = "conversation.Store.AcquireLock"

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to acquire lock connection", err).WithOp(op)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, key); err != nil {
		conn.Release()
		return nil, apperr.Wrap(apperr.KindInternal, "failed to take conversation lock", err).WithOp(op)
	}

	return func() {
		// Fresh context so a canceled pipeline still unlocks. If the unlock
		// itself fails the connection is destroyed instead of returned, which
		// drops the session lock with it.
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key); err != nil {
			_ = conn.Conn().Close(context.Background())
		}
		conn.Release()
	}, nil
}

// GetOrCreate returns the conversation for the customer, creating it on
// first contact. The no-op DO UPDATE makes the upsert return the existing
// row instead of racing a separate select.
func (s *Store) GetOrCreate(ctx context.Context, platform messaging.Platform, externalUserID string) (Conversation, error) {
	const op = "conversation.Store.GetOrCreate"

	row := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (platform, external_user_id)
		VALUES ($1, $2)
		ON CONFLICT (platform, external_user_id)
		DO UPDATE SET platform = EXCLUDED.platform
		RETURNING `+conversationColumns,
		platform, externalUserID,
	)
	conv, err := scanConversation(row)
	if err != nil {
		return Conversation{}, apperr.Wrap(apperr.KindInternal, "failed to get or create conversation", err).WithOp(op)
	}
	return conv, nil
}

// AppendMessage stores one turn and bumps the parent's last_message_at and
// message_count, both in one transaction.
func (s *Store) AppendMessage(ctx context.Context, conversationID uuid.UUID, sender messaging.SenderType, content string) (Message, error) {
	const op = "conversation.Store.AppendMessage"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Message{}, apperr.Wrap(apperr.KindInternal, "failed to begin append transaction", err).WithOp(op)
	}
	defer tx.Rollback(ctx)

	var msg Message
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_type, content)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, sender_type, content, created_at`,
		conversationID, sender, content,
	).Scan(&msg.ID, &msg.ConversationID, &msg.SenderType, &msg.Content, &msg.CreatedAt)
	if err != nil {
		return Message{}, apperr.Wrap(apperr.KindInternal, "failed to insert message", err).WithOp(op)
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = $1, message_count = message_count + 1
		WHERE id = $2`,
		msg.CreatedAt, conversationID,
	)
	if err != nil {
		return Message{}, apperr.Wrap(apperr.KindInternal, "failed to update conversation counters", err).WithOp(op)
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, apperr.Wrap(apperr.KindInternal, "failed to commit append", err).WithOp(op)
	}
	return msg, nil
}

// RecentHistory returns the last maxMessages messages, most-recent-last,
// ready to feed the reply generator. Bounding by message count rather than
// tokens keeps the window predictable.
func (s *Store) RecentHistory(ctx context.Context, conversationID uuid.UUID, maxMessages int) ([]Message, error) {
	const op = "conversation.Store.RecentHistory"

	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, sender_type, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`,
		conversationID, maxMessages,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load history", err).WithOp(op)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to scan history", err).WithOp(op)
	}

	// Query returned newest first; callers want chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetByID returns one conversation for the admin surface.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (Conversation, error) {
	const op = "conversation.Store.GetByID"

	row := s.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, apperr.Wrap(apperr.KindInternal, "failed to load conversation", err).WithOp(op)
	}
	return conv, nil
}

// ListByUser returns a customer's conversations, newest activity first.
func (s *Store) ListByUser(ctx context.Context, platform messaging.Platform, externalUserID string) ([]Conversation, error) {
	const op = "conversation.Store.ListByUser"

	rows, err := s.pool.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE platform = $1 AND external_user_id = $2
		ORDER BY last_message_at DESC`,
		platform, externalUserID,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list conversations", err).WithOp(op)
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan conversation", err).WithOp(op)
		}
		conversations = append(conversations, conv)
	}
	if rows.Err() != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to iterate conversations", rows.Err()).WithOp(op)
	}
	return conversations, nil
}

// ListMessages pages through a conversation's full history in chronological
// order for the admin transcript view.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]Message, error) {
	const op = "conversation.Store.ListMessages"

	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, sender_type, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`,
		conversationID, limit, offset,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list messages", err).WithOp(op)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to scan messages", err).WithOp(op)
	}
	return messages, nil
}

// Count returns the total number of conversations for the dashboard.
func (s *Store) Count(ctx context.Context) (int, error) {
	const op = "conversation.Store.Count"

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM conversations`).Scan(&n); err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "failed to count conversations", err).WithOp(op)
	}
	return n, nil
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var conv Conversation
	err := row.Scan(&conv.ID, &conv.Platform, &conv.ExternalUserID,
		&conv.StartedAt, &conv.LastMessageAt, &conv.MessageCount)
	return conv, err
}

func collectMessages(rows pgx.Rows) ([]Message, error) {
	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderType,
			&msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
