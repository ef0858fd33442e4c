package webhook

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
)

// ErrUnrecognizedPlatform marks a payload whose object discriminator matches
// no supported platform. Callers ack such payloads and drop them.
var ErrUnrecognizedPlatform = errors.New("webhook: unrecognized platform object")

// Normalize decodes a raw Meta webhook body into platform-neutral inbound
// messages. Delivery receipts, echoes of our own sends and empty events are
// filtered out here; non-text messages survive as Unsupported so the
// idempotency guard still records them.
func Normalize(raw []byte) ([]messaging.InboundMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch env.Object {
	case "whatsapp_business_account":
		return normalizeWhatsApp(env.Entry)
	case "page":
		return normalizePageStyle(env.Entry, messaging.PlatformMessenger)
	case "instagram":
		return normalizePageStyle(env.Entry, messaging.PlatformInstagram)
	default:
		return nil, ErrUnrecognizedPlatform
	}
}

func normalizeWhatsApp(entries []json.RawMessage) ([]messaging.InboundMessage, error) {
	var out []messaging.InboundMessage
	for _, rawEntry := range entries {
		var entry waEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue // malformed entry, skip rather than reject the batch
		}
		for _, change := range entry.Changes {
			if len(change.Value.Statuses) > 0 {
				continue // delivery/read receipt, not a message
			}
			for _, msg := range change.Value.Messages {
				if msg.From == "" || msg.ID == "" {
					continue
				}
				inbound := messaging.InboundMessage{
					Platform:          messaging.PlatformWhatsApp,
					ExternalUserID:    msg.From,
					ExternalMessageID: msg.ID,
					ReceivedAt:        waTimestamp(msg.Timestamp),
				}
				if msg.Type == "text" {
					inbound.Text = msg.Text.Body
				} else {
					inbound.Unsupported = true
				}
				out = append(out, inbound)
			}
		}
	}
	return out, nil
}

func normalizePageStyle(entries []json.RawMessage, platform messaging.Platform) ([]messaging.InboundMessage, error) {
	var out []messaging.InboundMessage
	for _, rawEntry := range entries {
		var entry fbEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}
		for _, event := range entry.Messaging {
			if event.Message == nil || event.Message.IsEcho {
				continue
			}
			if event.Sender.ID == "" || event.Message.MID == "" {
				continue
			}
			inbound := messaging.InboundMessage{
				Platform:          platform,
				ExternalUserID:    event.Sender.ID,
				ExternalMessageID: event.Message.MID,
				ReceivedAt:        msTimestamp(event.Timestamp),
			}
			if event.Message.Text != "" {
				inbound.Text = event.Message.Text
			} else {
				inbound.Unsupported = true
			}
			out = append(out, inbound)
		}
	}
	return out, nil
}

func waTimestamp(raw string) time.Time {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}

func msTimestamp(ms int64) time.Time {
	if ms <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(ms).UTC()
}
