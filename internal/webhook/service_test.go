package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

type fakeClaimer struct {
	seen     map[string]bool
	err      error
	attempts int
	released int
}

func (f *fakeClaimer) Claim(_ context.Context, platform messaging.Platform, externalMessageID string) (bool, error) {
	f.attempts++
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	key := string(platform) + ":" + externalMessageID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeClaimer) Release(_ context.Context, platform messaging.Platform, externalMessageID string) error {
	f.released++
	delete(f.seen, string(platform)+":"+externalMessageID)
	return nil
}

type fakeQueue struct {
	enqueued []messaging.InboundMessage
	err      error
}

func (f *fakeQueue) EnqueueInbound(_ context.Context, msg messaging.InboundMessage) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, msg)
	return nil
}

const whatsAppTextDelivery = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"changes": [{
			"value": {
				"messages": [{
					"from": "201012345678",
					"id": "wamid.SERVICE1",
					"timestamp": "1721900000",
					"type": "text",
					"text": {"body": "عايز أحجز معاد زيارة"}
				}]
			}
		}]
	}]
}`

func TestReceiveEnqueuesFreshMessage(t *testing.T) {
	claims := &fakeClaimer{}
	queue := &fakeQueue{}
	svc := NewService(claims, queue, logger.New("development"))

	accepted, dropped := svc.Receive(context.Background(), []byte(whatsAppTextDelivery))
	if accepted != 1 || dropped != 0 {
		t.Fatalf("accepted=%d dropped=%d, want 1/0", accepted, dropped)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued %d messages, want 1", len(queue.enqueued))
	}
	if queue.enqueued[0].ExternalMessageID != "wamid.SERVICE1" {
		t.Errorf("enqueued message id = %q", queue.enqueued[0].ExternalMessageID)
	}
}

func TestReceiveDropsDuplicateDelivery(t *testing.T) {
	claims := &fakeClaimer{}
	queue := &fakeQueue{}
	svc := NewService(claims, queue, logger.New("development"))

	svc.Receive(context.Background(), []byte(whatsAppTextDelivery))
	accepted, dropped := svc.Receive(context.Background(), []byte(whatsAppTextDelivery))

	if accepted != 0 || dropped != 1 {
		t.Fatalf("redelivery accepted=%d dropped=%d, want 0/1", accepted, dropped)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued %d messages total, want exactly 1", len(queue.enqueued))
	}
}

func TestReceiveDropsOnClaimError(t *testing.T) {
	claims := &fakeClaimer{err: errors.New("connection refused")}
	queue := &fakeQueue{}
	svc := NewService(claims, queue, logger.New("development"))

	accepted, dropped := svc.Receive(context.Background(), []byte(whatsAppTextDelivery))
	if accepted != 0 || dropped != 1 {
		t.Fatalf("accepted=%d dropped=%d, want 0/1", accepted, dropped)
	}
	if len(queue.enqueued) != 0 {
		t.Fatal("message enqueued despite unprovable claim")
	}
}

func TestReceiveDropsUnrecognizedPlatform(t *testing.T) {
	claims := &fakeClaimer{}
	queue := &fakeQueue{}
	svc := NewService(claims, queue, logger.New("development"))

	accepted, dropped := svc.Receive(context.Background(), []byte(`{"object": "telegram", "entry": []}`))
	if accepted != 0 || dropped != 1 {
		t.Fatalf("accepted=%d dropped=%d, want 0/1", accepted, dropped)
	}
	if claims.attempts != 0 {
		t.Error("claim attempted for unrecognized platform")
	}
	if len(queue.enqueued) != 0 {
		t.Error("message enqueued for unrecognized platform")
	}
}

func TestReceiveClaimsButDropsUnsupportedMessage(t *testing.T) {
	raw := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"value": {
					"messages": [{
						"from": "201012345678",
						"id": "wamid.VOICE1",
						"timestamp": "1721900000",
						"type": "audio"
					}]
				}
			}]
		}]
	}`)

	claims := &fakeClaimer{}
	queue := &fakeQueue{}
	svc := NewService(claims, queue, logger.New("development"))

	accepted, dropped := svc.Receive(context.Background(), raw)
	if accepted != 0 || dropped != 1 {
		t.Fatalf("accepted=%d dropped=%d, want 0/1", accepted, dropped)
	}
	if claims.attempts != 1 {
		t.Errorf("claim attempts = %d, want 1 (unsupported messages are still ledgered)", claims.attempts)
	}
	if len(queue.enqueued) != 0 {
		t.Error("unsupported message enqueued")
	}
}

func TestReceiveReleasesClaimOnEnqueueFailure(t *testing.T) {
	claims := &fakeClaimer{}
	queue := &fakeQueue{err: errors.New("redis down")}
	svc := NewService(claims, queue, logger.New("development"))

	accepted, dropped := svc.Receive(context.Background(), []byte(whatsAppTextDelivery))
	if accepted != 0 || dropped != 1 {
		t.Fatalf("accepted=%d dropped=%d, want 0/1", accepted, dropped)
	}
	if claims.released != 1 {
		t.Fatalf("claim releases = %d, want 1 so redelivery can be reprocessed", claims.released)
	}

	// Redelivery after the queue recovers must go through.
	queue.err = nil
	accepted, dropped = svc.Receive(context.Background(), []byte(whatsAppTextDelivery))
	if accepted != 1 || dropped != 0 {
		t.Fatalf("redelivery accepted=%d dropped=%d, want 1/0", accepted, dropped)
	}
	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued %d messages, want 1", len(queue.enqueued))
	}
}
