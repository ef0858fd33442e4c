// Package worker runs the background half of the pipeline: everything that
// happens after the webhook ack, from storing the customer turn to firing
// the hot-lead notification.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AliMahmood99/real-estate-chatbot/internal/ai"
	"github.com/AliMahmood99/real-estate-chatbot/internal/conversation"
	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

// fallbackReply is what the customer sees when reply generation fails after
// retries: a handoff offer instead of silence.
const fallbackReply = "معلش، عندنا مشكلة فنية بسيطة دلوقتي. ممكن حد من فريق المبيعات يتواصل معاك في أقرب وقت. 🙏"

const (
	maxGenerateAttempts = 3
	baseGenerateBackoff = time.Second
)

// ConversationStore is the persistence boundary for conversation state.
// AcquireLock must serialize across processes, not just goroutines; several
// consumers can hold the same conversation's queue items at once.
type ConversationStore interface {
	AcquireLock(ctx context.Context, key string) (release func(), err error)
	GetOrCreate(ctx context.Context, platform messaging.Platform, externalUserID string) (conversation.Conversation, error)
	AppendMessage(ctx context.Context, conversationID uuid.UUID, sender messaging.SenderType, content string) (conversation.Message, error)
	RecentHistory(ctx context.Context, conversationID uuid.UUID, maxMessages int) ([]conversation.Message, error)
}

// ReplyGenerator is the AI capability boundary.
type ReplyGenerator interface {
	Generate(ctx context.Context, grounding string, history []ai.Turn) (ai.Result, error)
}

// MessageSender is the outbound delivery boundary; the Graph API client
// carries its own retry budget.
type MessageSender interface {
	SendText(ctx context.Context, platform messaging.Platform, recipientID, text string) error
	SendTypingIndicator(ctx context.Context, platform messaging.Platform, recipientID string) error
}

// GroundingSource, usually the knowledge base, supplies catalog text for
// prompt assembly.
type GroundingSource interface {
	Grounding() string
}

// LeadApplier merges one extraction into the lead store.
type LeadApplier interface {
	ApplyExtraction(ctx context.Context, platform messaging.Platform, externalUserID string, partial lead.Extraction, latestText string) error
}

// Processor executes the background pipeline for one inbound message:
// store customer turn, build context, generate, store bot turn, send,
// extract, classify, notify. Work is serialized per conversation so
// interleaved deliveries cannot read half-written history.
type Processor struct {
	store        ConversationStore
	grounding    GroundingSource
	generator    ReplyGenerator
	sender       MessageSender
	leads        LeadApplier
	historyLimit int
	backoff      time.Duration
	locks        *keyedMutex
	log          *logger.Logger
}

func NewProcessor(store ConversationStore, grounding GroundingSource, generator ReplyGenerator, sender MessageSender, leads LeadApplier, historyLimit int, log *logger.Logger) *Processor {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &Processor{
		store:        store,
		grounding:    grounding,
		generator:    generator,
		sender:       sender,
		leads:        leads,
		historyLimit: historyLimit,
		backoff:      baseGenerateBackoff,
		locks:        newKeyedMutex(),
		log:          log,
	}
}

// Process runs the pipeline for one message. A returned error marks the
// whole delivery failed (storage problems only); external-API failures are
// absorbed here per the retry-then-degrade rules.
func (p *Processor) Process(ctx context.Context, msg messaging.InboundMessage) error {
	// The in-process mutex queues local workers cheaply; the store lock
	// extends the same guarantee across consumer processes.
	key := msg.ConversationKey()
	p.locks.Lock(key)
	defer p.locks.Unlock(key)

	release, err := p.store.AcquireLock(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	conv, err := p.store.GetOrCreate(ctx, msg.Platform, msg.ExternalUserID)
	if err != nil {
		return err
	}
	log := p.log.WithConversation(conv.ID.String())

	if _, err := p.store.AppendMessage(ctx, conv.ID, messaging.SenderCustomer, msg.Text); err != nil {
		return err
	}

	if err := p.sender.SendTypingIndicator(ctx, msg.Platform, msg.ExternalUserID); err != nil {
		log.Debug("typing indicator failed", "error", err)
	}

	history, err := p.store.RecentHistory(ctx, conv.ID, p.historyLimit)
	if err != nil {
		return err
	}

	result, genErr := p.generateWithRetry(ctx, history)
	if genErr != nil {
		log.Error("reply generation failed, sending fallback", "error", genErr)
		result = ai.Result{Text: fallbackReply}
	}

	if _, err := p.store.AppendMessage(ctx, conv.ID, messaging.SenderBot, result.Text); err != nil {
		return err
	}

	if err := p.sender.SendText(ctx, msg.Platform, msg.ExternalUserID, result.Text); err != nil {
		// Delivery is abandoned after the client's retry budget; the stored
		// turn and the extraction below still count.
		log.Error("reply delivery failed", "platform", msg.Platform, "error", err)
	}

	if result.Extraction != nil {
		if err := p.leads.ApplyExtraction(ctx, msg.Platform, msg.ExternalUserID, *result.Extraction, msg.Text); err != nil {
			log.Error("lead extraction merge failed", "error", err)
		}
	}

	return nil
}

func (p *Processor) generateWithRetry(ctx context.Context, history []conversation.Message) (ai.Result, error) {
	turns := make([]ai.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, ai.Turn{Sender: msg.SenderType, Text: msg.Content})
	}

	var lastErr error
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		result, err := p.generator.Generate(ctx, p.grounding.Grounding(), turns)
		if err == nil {
			return result, nil
		}
		lastErr = err
		p.log.CapabilityError("reply-generation", err, attempt)
		if attempt == maxGenerateAttempts {
			break
		}
		select {
		case <-time.After(p.backoff << (attempt - 1)):
		case <-ctx.Done():
			return ai.Result{}, ctx.Err()
		}
	}
	return ai.Result{}, fmt.Errorf("generation failed after %d attempts: %w", maxGenerateAttempts, lastErr)
}
