// Package messaging defines the normalized internal message model shared by
// the webhook ingestion layer, the pipeline, and the stores.
package messaging

import (
	"fmt"
	"time"
)

// Platform identifies the chat platform a message arrived from or is sent to.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformMessenger Platform = "messenger"
	PlatformInstagram Platform = "instagram"
)

// ParsePlatform converts a string into a Platform, rejecting unknown values.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformWhatsApp, PlatformMessenger, PlatformInstagram:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// SenderType distinguishes who authored a stored message.
type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderBot      SenderType = "bot"
)

// InboundMessage is one normalized inbound message. A single webhook delivery
// may yield several of these.
type InboundMessage struct {
	Platform          Platform
	ExternalUserID    string
	ExternalMessageID string
	Text              string
	// Unsupported marks non-text payloads (images, stickers, audio). They are
	// still idempotency-tracked but produce no reply.
	Unsupported bool
	ReceivedAt  time.Time
}

// ConversationKey identifies the conversation an inbound message belongs to.
// Background processing is serialized per key.
func (m InboundMessage) ConversationKey() string {
	return string(m.Platform) + ":" + m.ExternalUserID
}
