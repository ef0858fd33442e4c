package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
)

const (
	leadDataStart = "---LEAD_DATA---"
	leadDataEnd   = "---END_LEAD_DATA---"
)

// ParseReply splits a raw model response into the customer-facing text and
// the structured extraction. A missing or malformed block degrades to text
// with a nil extraction and a non-nil error; the reply itself is always
// usable.
func ParseReply(raw string) (string, *lead.Extraction, error) {
	start := strings.Index(raw, leadDataStart)
	if start < 0 {
		return strings.TrimSpace(raw), nil, nil
	}

	text := strings.TrimSpace(raw[:start])

	rest := raw[start+len(leadDataStart):]
	end := strings.Index(rest, leadDataEnd)
	if end < 0 {
		return text, nil, fmt.Errorf("lead data block not terminated")
	}

	payload := strings.TrimSpace(rest[:end])
	var extraction lead.Extraction
	if err := json.Unmarshal([]byte(payload), &extraction); err != nil {
		return text, nil, fmt.Errorf("malformed lead data block: %w", err)
	}
	return text, &extraction, nil
}
