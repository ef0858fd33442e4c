// Package ai wraps the hosted LLM behind a single Generate call: grounded
// reply plus structured lead extraction in one round trip.
package ai

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

// Turn is one conversation turn in the prompt window.
type Turn struct {
	Sender messaging.SenderType
	Text   string
}

// Result is one generation outcome. Extraction is nil when the model omitted
// or mangled the lead data block; Text is always present on success.
type Result struct {
	Text       string
	Extraction *lead.Extraction
}

// Generator produces grounded replies via the Gemini API.
type Generator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

func NewGenerator(ctx context.Context, cfg config.AIConfig, log *logger.Logger) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Generator{
		client:  client,
		model:   cfg.GetGeminiModel(),
		timeout: cfg.GetReplyTimeout(),
		log:     log,
	}, nil
}

// Generate produces a reply grounded on the catalog text plus the bounded
// history, most-recent-last. The per-call timeout converts a stalled upstream
// into a retryable failure instead of an indefinite hang.
func (g *Generator) Generate(ctx context.Context, grounding string, history []Turn) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Sender == messaging.SenderBot {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, genai.Role(role)))
	}

	system := systemInstruction + "\n\n" + grounding
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return Result{}, fmt.Errorf("model returned empty response")
	}

	text, extraction, err := ParseReply(raw)
	if err != nil {
		// The reply is still deliverable; only the extraction is lost.
		g.log.Warn("discarding unusable lead data block", "error", err)
	}
	if text == "" {
		return Result{}, fmt.Errorf("model returned lead data without reply text")
	}
	return Result{Text: text, Extraction: extraction}, nil
}
