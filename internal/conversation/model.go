// Package conversation owns conversation and message persistence: one
// conversation per (platform, external user), append-only message history,
// and the bounded history window the reply generator reads.
package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
)

// Conversation is created lazily on the first inbound message from a
// customer and never deleted.
type Conversation struct {
	ID             uuid.UUID
	Platform       messaging.Platform
	ExternalUserID string
	StartedAt      time.Time
	LastMessageAt  time.Time
	MessageCount   int
}

// Message is one stored turn. Rows are append-only; history ordering is
// created_at with the serial id as insertion-order tiebreak.
type Message struct {
	ID             int64
	ConversationID uuid.UUID
	SenderType     messaging.SenderType
	Content        string
	CreatedAt      time.Time
}
