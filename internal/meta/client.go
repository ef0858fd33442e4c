// Package meta is the outbound Graph API client for WhatsApp Cloud,
// Messenger and Instagram sends. One client serves all three platforms;
// payload shape and auth differ per platform, retry and rate limiting do not.
package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

const (
	maxSendAttempts = 3
	baseSendBackoff = time.Second
)

type Client struct {
	baseURL         string
	whatsAppToken   string
	whatsAppPhoneID string
	messengerToken  string
	instagramToken  string
	http            *http.Client
	limiter         *rate.Limiter
	backoff         time.Duration
	log             *logger.Logger
}

func NewClient(cfg config.MetaConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:         strings.TrimRight(cfg.GetGraphAPIBaseURL(), "/"),
		whatsAppToken:   cfg.GetWhatsAppAccessToken(),
		whatsAppPhoneID: cfg.GetWhatsAppPhoneNumberID(),
		messengerToken:  cfg.GetMessengerPageAccessToken(),
		instagramToken:  cfg.GetInstagramAccessToken(),
		http:            &http.Client{Timeout: 15 * time.Second},
		// Graph API messaging allows far more, but 20 rps with burst
		// headroom keeps a reply storm from tripping platform limits.
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		backoff: baseSendBackoff,
		log:     log,
	}
}

// SendText delivers one message, retrying transient failures with
// exponential backoff. WhatsApp gets its markdown dialect cleaned first.
func (c *Client) SendText(ctx context.Context, platform messaging.Platform, recipientID, text string) error {
	if platform == messaging.PlatformWhatsApp {
		text = CleanForWhatsApp(text)
	}

	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retryable, err := c.sendOnce(ctx, platform, recipientID, text)
		if err == nil {
			c.log.Info("message sent", "platform", platform, "attempt", attempt)
			return nil
		}
		lastErr = err
		c.log.CapabilityError("message-send", err, attempt)
		if !retryable || attempt == maxSendAttempts {
			break
		}
		select {
		case <-time.After(c.backoff << (attempt - 1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("send to %s failed after %d attempts: %w", platform, maxSendAttempts, lastErr)
}

// SendTypingIndicator marks the conversation as "typing" while the reply is
// generated. Best effort: failures are logged by the caller and never retried.
func (c *Client) SendTypingIndicator(ctx context.Context, platform messaging.Platform, recipientID string) error {
	if platform == messaging.PlatformWhatsApp {
		// WhatsApp Cloud has no standalone typing action; read receipts
		// require the inbound message id, which the pipeline does not
		// carry this far. Skip silently.
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	payload := map[string]any{
		"recipient":     map[string]string{"id": recipientID},
		"sender_action": "typing_on",
	}
	_, err := c.postPageStyle(ctx, platform, payload)
	return err
}

func (c *Client) sendOnce(ctx context.Context, platform messaging.Platform, recipientID, text string) (retryable bool, err error) {
	switch platform {
	case messaging.PlatformWhatsApp:
		payload := map[string]any{
			"messaging_product": "whatsapp",
			"to":                recipientID,
			"type":              "text",
			"text":              map[string]string{"body": text},
		}
		endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.whatsAppPhoneID)
		return c.post(ctx, endpoint, "Bearer "+c.whatsAppToken, payload)

	case messaging.PlatformMessenger, messaging.PlatformInstagram:
		payload := map[string]any{
			"recipient": map[string]string{"id": recipientID},
			"message":   map[string]string{"text": text},
		}
		return c.postPageStyle(ctx, platform, payload)

	default:
		return false, fmt.Errorf("unsupported platform %q", platform)
	}
}

// postPageStyle hits /me/messages, the shared endpoint for Messenger and
// Instagram, which authenticate via a query parameter rather than a header.
func (c *Client) postPageStyle(ctx context.Context, platform messaging.Platform, payload any) (bool, error) {
	token := c.messengerToken
	if platform == messaging.PlatformInstagram {
		token = c.instagramToken
	}
	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", c.baseURL, url.QueryEscape(token))
	return c.post(ctx, endpoint, "", payload)
}

func (c *Client) post(ctx context.Context, endpoint, authorization string, payload any) (retryable bool, err error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal send payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, fmt.Errorf("graph api request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("graph api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		// 429 and 5xx are worth retrying; 4xx means the request itself is wrong.
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}
	return false, nil
}
