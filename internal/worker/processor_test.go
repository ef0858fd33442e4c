package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AliMahmood99/real-estate-chatbot/internal/ai"
	"github.com/AliMahmood99/real-estate-chatbot/internal/conversation"
	"github.com/AliMahmood99/real-estate-chatbot/internal/lead"
	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

type fakeStore struct {
	mu       sync.Mutex
	convID   uuid.UUID
	messages []conversation.Message
	failOn   string
	locks    map[string]*sync.Mutex
}

func newFakeStore() *fakeStore {
	return &fakeStore{convID: uuid.New(), locks: make(map[string]*sync.Mutex)}
}

// AcquireLock mirrors the advisory lock's behavior: exclusive per key and
// shared by every processor using this store, like consumers sharing one
// database.
func (f *fakeStore) AcquireLock(_ context.Context, key string) (func(), error) {
	if f.failOn == "lock" {
		return nil, errors.New("db down")
	}
	f.mu.Lock()
	lock, ok := f.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		f.locks[key] = lock
	}
	f.mu.Unlock()
	lock.Lock()
	return lock.Unlock, nil
}

func (f *fakeStore) GetOrCreate(_ context.Context, platform messaging.Platform, externalUserID string) (conversation.Conversation, error) {
	if f.failOn == "get_or_create" {
		return conversation.Conversation{}, errors.New("db down")
	}
	return conversation.Conversation{ID: f.convID, Platform: platform, ExternalUserID: externalUserID}, nil
}

func (f *fakeStore) AppendMessage(_ context.Context, conversationID uuid.UUID, sender messaging.SenderType, content string) (conversation.Message, error) {
	if f.failOn == "append" {
		return conversation.Message{}, errors.New("db down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := conversation.Message{
		ID:             int64(len(f.messages) + 1),
		ConversationID: conversationID,
		SenderType:     sender,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeStore) RecentHistory(_ context.Context, _ uuid.UUID, maxMessages int) ([]conversation.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) > maxMessages {
		return f.messages[len(f.messages)-maxMessages:], nil
	}
	return append([]conversation.Message(nil), f.messages...), nil
}

type fakeGenerator struct {
	mu       sync.Mutex
	results  []ai.Result
	errs     []error
	calls    int
	lastHist []ai.Turn
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, history []ai.Turn) (ai.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.lastHist = history
	if i < len(f.errs) && f.errs[i] != nil {
		return ai.Result{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return ai.Result{Text: "default reply"}, nil
}

type fakeMessageSender struct {
	mu     sync.Mutex
	sent   []string
	typing int
	err    error
}

func (f *fakeMessageSender) SendText(_ context.Context, _ messaging.Platform, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.err
}

func (f *fakeMessageSender) SendTypingIndicator(context.Context, messaging.Platform, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing++
	return nil
}

type fakeLeads struct {
	mu      sync.Mutex
	applied []lead.Extraction
	err     error
}

func (f *fakeLeads) ApplyExtraction(_ context.Context, _ messaging.Platform, _ string, partial lead.Extraction, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, partial)
	return f.err
}

type staticGrounding string

func (s staticGrounding) Grounding() string { return string(s) }

func inbound(text string) messaging.InboundMessage {
	return messaging.InboundMessage{
		Platform:          messaging.PlatformWhatsApp,
		ExternalUserID:    "201012345678",
		ExternalMessageID: "wamid.1",
		Text:              text,
		ReceivedAt:        time.Now(),
	}
}

func newTestProcessor(store *fakeStore, gen *fakeGenerator, sender *fakeMessageSender, leads *fakeLeads) *Processor {
	p := NewProcessor(store, staticGrounding("CATALOG"), gen, sender, leads, 20, logger.New("test"))
	p.backoff = time.Millisecond
	return p
}

func TestProcessHappyPath(t *testing.T) {
	store := newFakeStore()
	name := "Ahmed"
	phone := "01012345678"
	gen := &fakeGenerator{results: []ai.Result{{
		Text:       "أهلا! متاح طبعا.",
		Extraction: &lead.Extraction{Name: &name, Phone: &phone, VisitIntent: true},
	}}}
	sender := &fakeMessageSender{}
	leads := &fakeLeads{}

	p := newTestProcessor(store, gen, sender, leads)
	if err := p.Process(context.Background(), inbound("عايز أزور المشروع بكرا")); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(store.messages) != 2 {
		t.Fatalf("stored messages = %d, want customer + bot", len(store.messages))
	}
	if store.messages[0].SenderType != messaging.SenderCustomer {
		t.Errorf("first stored message sender = %q", store.messages[0].SenderType)
	}
	if store.messages[1].SenderType != messaging.SenderBot || store.messages[1].Content != "أهلا! متاح طبعا." {
		t.Errorf("bot message = %+v", store.messages[1])
	}
	if len(sender.sent) != 1 || sender.sent[0] != "أهلا! متاح طبعا." {
		t.Errorf("sent = %v", sender.sent)
	}
	if len(leads.applied) != 1 || !leads.applied[0].VisitIntent {
		t.Errorf("applied extractions = %+v", leads.applied)
	}
	// The generator must see the customer turn it is replying to.
	if len(gen.lastHist) != 1 || gen.lastHist[0].Text != "عايز أزور المشروع بكرا" {
		t.Errorf("generator history = %+v", gen.lastHist)
	}
}

func TestProcessRetriesGenerationThenSucceeds(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{
		errs:    []error{errors.New("overloaded"), errors.New("overloaded")},
		results: []ai.Result{{}, {}, {Text: "reply on third try"}},
	}
	sender := &fakeMessageSender{}
	leads := &fakeLeads{}

	p := newTestProcessor(store, gen, sender, leads)
	if err := p.Process(context.Background(), inbound("hi")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "reply on third try" {
		t.Errorf("sent = %v", sender.sent)
	}
}

func TestProcessFallbackAfterGenerationExhausted(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{errs: []error{
		errors.New("down"), errors.New("down"), errors.New("down"),
	}}
	sender := &fakeMessageSender{}
	leads := &fakeLeads{}

	p := newTestProcessor(store, gen, sender, leads)
	if err := p.Process(context.Background(), inbound("hi")); err != nil {
		t.Fatalf("generation failure must not fail the delivery: %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0] != fallbackReply {
		t.Errorf("sent = %v, want fallback", sender.sent)
	}
	if store.messages[1].Content != fallbackReply {
		t.Errorf("stored bot message = %q, want fallback", store.messages[1].Content)
	}
	if len(leads.applied) != 0 {
		t.Errorf("no extraction should run on fallback, got %d", len(leads.applied))
	}
}

func TestProcessSendFailureDoesNotBlockExtraction(t *testing.T) {
	store := newFakeStore()
	name := "Sara"
	phone := "01100000000"
	gen := &fakeGenerator{results: []ai.Result{{
		Text:       "reply",
		Extraction: &lead.Extraction{Name: &name, Phone: &phone},
	}}}
	sender := &fakeMessageSender{err: errors.New("graph api down")}
	leads := &fakeLeads{}

	p := newTestProcessor(store, gen, sender, leads)
	if err := p.Process(context.Background(), inbound("hello")); err != nil {
		t.Fatalf("send failure must not fail the delivery: %v", err)
	}
	if len(leads.applied) != 1 {
		t.Errorf("extraction skipped after send failure")
	}
}

func TestProcessStorageFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.failOn = "append"
	p := newTestProcessor(store, &fakeGenerator{}, &fakeMessageSender{}, &fakeLeads{})

	if err := p.Process(context.Background(), inbound("hi")); err == nil {
		t.Fatal("expected error on storage failure")
	}
}

func TestProcessExtractionFailureIsSwallowed(t *testing.T) {
	store := newFakeStore()
	name := "A"
	phone := "0100"
	gen := &fakeGenerator{results: []ai.Result{{
		Text:       "reply",
		Extraction: &lead.Extraction{Name: &name, Phone: &phone},
	}}}
	leads := &fakeLeads{err: errors.New("merge conflict")}

	p := newTestProcessor(store, gen, &fakeMessageSender{}, leads)
	if err := p.Process(context.Background(), inbound("hi")); err != nil {
		t.Fatalf("extraction failure must not fail the delivery: %v", err)
	}
}

// countingGenerator tracks how many Generate calls run at the same time.
type countingGenerator struct {
	mu        sync.Mutex
	active    int
	maxActive int
}

func (g *countingGenerator) Generate(context.Context, string, []ai.Turn) (ai.Result, error) {
	g.mu.Lock()
	g.active++
	if g.active > g.maxActive {
		g.maxActive = g.active
	}
	g.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	return ai.Result{Text: "ok"}, nil
}

func TestProcessSerializesAcrossConsumers(t *testing.T) {
	store := newFakeStore()
	gen := &countingGenerator{}
	sender := &fakeMessageSender{}
	leads := &fakeLeads{}

	// Two processors over one store model the api binary and a standalone
	// worker consuming the same queue. The in-process mutex cannot see
	// across them; only the store lock can.
	p1 := newTestProcessor(store, &fakeGenerator{}, sender, leads)
	p2 := newTestProcessor(store, &fakeGenerator{}, sender, leads)
	p1.generator = gen
	p2.generator = gen

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		p := p1
		if i%2 == 1 {
			p = p2
		}
		wg.Add(1)
		go func(p *Processor) {
			defer wg.Done()
			if err := p.Process(context.Background(), inbound("متاح ايه عندكم؟")); err != nil {
				t.Errorf("Process: %v", err)
			}
		}(p)
	}
	wg.Wait()

	if gen.maxActive != 1 {
		t.Errorf("same conversation processed concurrently by %d consumers, want 1", gen.maxActive)
	}
}

func TestProcessLockFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.failOn = "lock"
	p := newTestProcessor(store, &fakeGenerator{}, &fakeMessageSender{}, &fakeLeads{})

	if err := p.Process(context.Background(), inbound("hi")); err == nil {
		t.Fatal("expected error when the conversation lock cannot be taken")
	}
	if len(store.messages) != 0 {
		t.Errorf("messages stored without the lock: %d", len(store.messages))
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("k")
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			locks.Unlock("k")
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxActive)
	}
	if len(locks.entries) != 0 {
		t.Errorf("lock entries leaked: %d", len(locks.entries))
	}
}
