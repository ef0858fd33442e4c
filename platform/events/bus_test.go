package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

type testEvent struct{ BaseEvent }

func (testEvent) EventName() string { return "test.event" }

func TestPublishSurvivesPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		panic("subscriber bug")
	}))

	done := make(chan struct{})
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		close(done)
		return nil
	}))

	// An unrecovered panic in either goroutine would kill the test binary.
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second handler never ran")
	}
}

func TestPublishSyncReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	wantErr := errors.New("handler failed")
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		return wantErr
	}))

	ran := false
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		ran = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want the handler error", err)
	}
	if ran {
		t.Error("handlers after the failing one still ran")
	}
}
