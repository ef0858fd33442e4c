package webhook

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/apperr"
)

// Repository persists the idempotency guard. A message claimed once is never
// claimed again, even across process restarts, because the claim lives in the
// same database the rest of the pipeline writes to.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Claim records (platform, external_message_id) as processed. It returns true
// when this call won the claim and false when another delivery got there
// first. Conflicts are the expected path under Meta's redelivery behavior.
func (r *Repository) Claim(ctx context.Context, platform messaging.Platform, externalMessageID string) (bool, error) {
	const op = "webhook.Repository.Claim"

	tag, err := r.db.Exec(ctx, `
		INSERT INTO processed_messages (platform, external_message_id)
		VALUES ($1, $2)
		ON CONFLICT (platform, external_message_id) DO NOTHING`,
		platform, externalMessageID,
	)
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, "failed to record processed message", err).WithOp(op)
	}
	return tag.RowsAffected() == 1, nil
}

// Release gives a claim back. Used when the message was claimed but never
// reached the queue; without this, Meta's redelivery would be discarded as a
// duplicate and the message lost for good.
func (r *Repository) Release(ctx context.Context, platform messaging.Platform, externalMessageID string) error {
	const op = "webhook.Repository.Release"

	_, err := r.db.Exec(ctx, `
		DELETE FROM processed_messages
		WHERE platform = $1 AND external_message_id = $2`,
		platform, externalMessageID,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to release processed message", err).WithOp(op)
	}
	return nil
}
