package webhook

import (
	"context"
	"errors"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

// MessageClaimer owns the idempotency guard.
type MessageClaimer interface {
	Claim(ctx context.Context, platform messaging.Platform, externalMessageID string) (bool, error)
	Release(ctx context.Context, platform messaging.Platform, externalMessageID string) error
}

// Enqueuer hands an accepted message to the background pipeline.
type Enqueuer interface {
	EnqueueInbound(ctx context.Context, msg messaging.InboundMessage) error
}

// Service turns raw webhook bodies into queued pipeline work. It never
// returns an error for payload problems, only for infrastructure failures;
// Meta retries on non-200 and retries are exactly what the guard exists to
// absorb, not provoke.
type Service struct {
	claims MessageClaimer
	queue  Enqueuer
	log    *logger.Logger
}

func NewService(claims MessageClaimer, queue Enqueuer, log *logger.Logger) *Service {
	return &Service{claims: claims, queue: queue, log: log}
}

// Receive processes one webhook delivery. It reports how many messages were
// accepted into the pipeline and how many were dropped (duplicates,
// unsupported types, unrecognized payloads).
func (s *Service) Receive(ctx context.Context, raw []byte) (accepted, dropped int) {
	messages, err := Normalize(raw)
	if err != nil {
		if errors.Is(err, ErrUnrecognizedPlatform) {
			s.log.Warn("webhook payload for unrecognized platform dropped")
		} else {
			s.log.Warn("malformed webhook payload dropped", "error", err)
		}
		return 0, 1
	}

	for _, msg := range messages {
		won, err := s.claims.Claim(ctx, msg.Platform, msg.ExternalMessageID)
		if err != nil {
			// Can't prove we haven't seen it; drop rather than risk a
			// double reply. Meta will redeliver if it mattered.
			s.log.Error("idempotency claim failed, dropping message",
				"platform", msg.Platform,
				"external_message_id", msg.ExternalMessageID,
				"error", err)
			dropped++
			continue
		}
		if !won {
			s.log.Info("duplicate message dropped",
				"platform", msg.Platform,
				"external_message_id", msg.ExternalMessageID)
			dropped++
			continue
		}
		if msg.Unsupported {
			// Claimed so redeliveries stay silent, but nothing to process.
			dropped++
			continue
		}
		if err := s.queue.EnqueueInbound(ctx, msg); err != nil {
			s.log.Error("failed to enqueue inbound message",
				"platform", msg.Platform,
				"external_message_id", msg.ExternalMessageID,
				"error", err)
			// Give the claim back so Meta's redelivery gets reprocessed
			// instead of being dropped as a duplicate.
			if relErr := s.claims.Release(ctx, msg.Platform, msg.ExternalMessageID); relErr != nil {
				s.log.Error("failed to release claim after enqueue failure",
					"platform", msg.Platform,
					"external_message_id", msg.ExternalMessageID,
					"error", relErr)
			}
			dropped++
			continue
		}
		accepted++
	}

	s.log.WebhookEvent(string(messagesPlatform(messages)), accepted, dropped)
	return accepted, dropped
}

func messagesPlatform(messages []messaging.InboundMessage) messaging.Platform {
	if len(messages) == 0 {
		return ""
	}
	return messages[0].Platform
}
