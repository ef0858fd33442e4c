package webhook

import "encoding/json"

// Wire shapes for the three Meta webhook payload variants. Providers only
// guarantee the documented minimum, so every nested field is optional and
// absence is never fatal.

// envelope is the common outer shape. The object field is the platform
// discriminator; entry contents differ per platform and are decoded lazily.
type envelope struct {
	Object string            `json:"object"`
	Entry  []json.RawMessage `json:"entry"`
}

// ---- WhatsApp Business Account shape ----

type waEntry struct {
	Changes []waChange `json:"changes"`
}

type waChange struct {
	Value waValue `json:"value"`
}

type waValue struct {
	// Statuses carries delivery/read receipts; their presence marks a
	// non-message change that yields nothing.
	Statuses []json.RawMessage `json:"statuses"`
	Messages []waMessage       `json:"messages"`
}

type waMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"` // unix seconds, as string
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
}

// ---- Messenger / Instagram shape ----
// The two are near-identical on the wire; the envelope discriminator, never
// the shape, decides which platform an event belongs to.

type fbEntry struct {
	Messaging []fbMessagingEvent `json:"messaging"`
}

type fbMessagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Timestamp int64      `json:"timestamp"` // unix milliseconds
	Message   *fbMessage `json:"message"`
}

type fbMessage struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo"`
}
