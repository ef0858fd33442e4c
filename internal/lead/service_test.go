package lead

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/AliMahmood99/real-estate-chatbot/internal/events"
	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

type fakeLeadStore struct {
	Store
	applied []appliedExtraction
	outcome *MergeOutcome
	err     error
}

type appliedExtraction struct {
	partial Extraction
	auto    Status
}

func (f *fakeLeadStore) ApplyExtraction(_ context.Context, _ messaging.Platform, _ string, partial Extraction, auto Status) (*MergeOutcome, error) {
	f.applied = append(f.applied, appliedExtraction{partial: partial, auto: auto})
	return f.outcome, f.err
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newTestService(t *testing.T, store *fakeLeadStore, bus events.Bus) *Service {
	t.Helper()
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	return NewService(store, NewClassifier(policy), bus, logger.New("test"))
}

// The deterministic keyword scan must run even when the model reports no
// fields, so a visit-intent message can still move an existing lead to hot.
func TestApplyExtractionEmptyStillClassifies(t *testing.T) {
	store := &fakeLeadStore{outcome: &MergeOutcome{
		Lead:        Lead{ID: uuid.New(), Status: StatusHot},
		PriorStatus: StatusWarm,
		WentHot:     true,
	}}
	bus := &recordingBus{}
	svc := newTestService(t, store, bus)

	err := svc.ApplyExtraction(context.Background(), messaging.PlatformWhatsApp, "201012345678",
		Extraction{}, "عايز أزور المشروع بكرا")
	if err != nil {
		t.Fatalf("ApplyExtraction: %v", err)
	}

	if len(store.applied) != 1 {
		t.Fatalf("store calls = %d, want 1 (empty extraction must still classify)", len(store.applied))
	}
	if store.applied[0].auto != StatusHot {
		t.Errorf("auto status = %q, want hot from the keyword scan", store.applied[0].auto)
	}
	if len(bus.published) != 1 {
		t.Fatalf("published events = %d, want the hot transition", len(bus.published))
	}
	if bus.published[0].EventName() != "leads.went_hot" {
		t.Errorf("event = %q, want leads.went_hot", bus.published[0].EventName())
	}
}

func TestApplyExtractionPublishesCreatedAndHot(t *testing.T) {
	store := &fakeLeadStore{outcome: &MergeOutcome{
		Lead:    Lead{ID: uuid.New(), Name: "Ahmed", Phone: "+201012345678", Status: StatusHot},
		Created: true,
		WentHot: true,
	}}
	bus := &recordingBus{}
	svc := newTestService(t, store, bus)

	name := "Ahmed"
	phone := "01012345678"
	err := svc.ApplyExtraction(context.Background(), messaging.PlatformWhatsApp, "201012345678",
		Extraction{Name: &name, Phone: &phone, VisitIntent: true}, "عايز أحجز معاد")
	if err != nil {
		t.Fatalf("ApplyExtraction: %v", err)
	}

	if len(bus.published) != 2 {
		t.Fatalf("published events = %d, want created + went_hot", len(bus.published))
	}
	if bus.published[0].EventName() != "leads.created" {
		t.Errorf("first event = %q", bus.published[0].EventName())
	}
	if bus.published[1].EventName() != "leads.went_hot" {
		t.Errorf("second event = %q", bus.published[1].EventName())
	}
}

func TestApplyExtractionHeldPublishesNothing(t *testing.T) {
	store := &fakeLeadStore{outcome: nil}
	bus := &recordingBus{}
	svc := newTestService(t, store, bus)

	name := "Ahmed"
	err := svc.ApplyExtraction(context.Background(), messaging.PlatformWhatsApp, "201012345678",
		Extraction{Name: &name}, "انا اسمي أحمد")
	if err != nil {
		t.Fatalf("ApplyExtraction: %v", err)
	}
	if len(bus.published) != 0 {
		t.Errorf("published events = %d, want none while the lead is held", len(bus.published))
	}
}

func TestApplyExtractionNormalizesPhone(t *testing.T) {
	store := &fakeLeadStore{outcome: &MergeOutcome{Lead: Lead{ID: uuid.New(), Status: StatusCold}}}
	svc := newTestService(t, store, &recordingBus{})

	name := "Sara"
	phone := "01012345678"
	err := svc.ApplyExtraction(context.Background(), messaging.PlatformWhatsApp, "201012345678",
		Extraction{Name: &name, Phone: &phone}, "hi")
	if err != nil {
		t.Fatalf("ApplyExtraction: %v", err)
	}

	got := store.applied[0].partial.Phone
	if got == nil || *got != "+201012345678" {
		t.Errorf("stored phone = %v, want +201012345678", got)
	}
}
