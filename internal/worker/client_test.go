package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
)

func TestEnqueueInbound(t *testing.T) {
	mr := miniredis.RunT(t)

	c := &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()}),
		queue:  "messages",
	}
	defer c.Close()

	err := c.EnqueueInbound(context.Background(), messaging.InboundMessage{
		Platform:          messaging.PlatformWhatsApp,
		ExternalUserID:    "201012345678",
		ExternalMessageID: "wamid.X",
		Text:              "hello",
		ReceivedAt:        time.Now(),
	})
	if err != nil {
		t.Fatalf("EnqueueInbound: %v", err)
	}

	pending, err := mr.List("asynq:{messages}:pending")
	if err != nil {
		t.Fatalf("reading pending queue: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending tasks = %d, want 1", len(pending))
	}
}

func TestInboundTaskRoundTrip(t *testing.T) {
	payload := InboundMessagePayload{
		Platform:          "messenger",
		ExternalUserID:    "42",
		ExternalMessageID: "m_1",
		Text:              "hi",
		ReceivedAt:        time.Now().UTC().Truncate(time.Second),
	}

	task, err := NewInboundMessageTask(payload)
	if err != nil {
		t.Fatalf("NewInboundMessageTask: %v", err)
	}
	if task.Type() != TaskInboundMessage {
		t.Errorf("task type = %q", task.Type())
	}

	got, err := ParseInboundMessagePayload(task)
	if err != nil {
		t.Fatalf("ParseInboundMessagePayload: %v", err)
	}
	if got != payload {
		t.Errorf("payload round trip = %+v, want %+v", got, payload)
	}
}
