// Package notification turns hot-lead events into sales team alerts over
// WhatsApp and email. It sits entirely behind the event bus: nothing in the
// pipeline blocks on, or fails because of, a notification.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/AliMahmood99/real-estate-chatbot/internal/events"
	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

// TextSender delivers a chat message; satisfied by the Graph API client.
type TextSender interface {
	SendText(ctx context.Context, platform messaging.Platform, recipientID, text string) error
}

// EmailSender delivers a plain-text email; satisfied by *Mailer, whose nil
// receiver makes a disabled SMTP config a silent no-op.
type EmailSender interface {
	Send(ctx context.Context, toEmail, subject, body string) error
}

// Dispatcher fans one LeadWentHot event out to the configured channels.
// Channel failures are logged and swallowed independently: a broken SMTP
// server must not cost the team the WhatsApp ping, and neither failure may
// ripple back into the message pipeline.
type Dispatcher struct {
	sender        TextSender
	mailer        EmailSender
	salesWhatsApp string
	salesEmail    string
	log           *logger.Logger
}

func NewDispatcher(sender TextSender, mailer EmailSender, cfg config.NotificationConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender:        sender,
		mailer:        mailer,
		salesWhatsApp: cfg.GetSalesTeamWhatsApp(),
		salesEmail:    cfg.GetSalesTeamEmail(),
		log:           log,
	}
}

// Register subscribes the dispatcher on the bus. The publisher already
// guarantees edge-triggering, so every received event is an alert.
func (d *Dispatcher) Register(bus events.Bus) {
	bus.Subscribe(events.LeadWentHot{}.EventName(), d)
}

func (d *Dispatcher) Handle(ctx context.Context, event events.Event) error {
	hot, ok := event.(events.LeadWentHot)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if d.salesWhatsApp != "" {
		text := buildAlertText(hot)
		if err := d.sender.SendText(ctx, messaging.PlatformWhatsApp, d.salesWhatsApp, text); err != nil {
			d.log.Error("hot lead whatsapp alert failed", "lead_id", hot.LeadID, "error", err)
		}
	}

	if d.salesEmail != "" {
		subject := fmt.Sprintf("Hot lead: %s (%s)", hot.Name, hot.Platform)
		if err := d.mailer.Send(ctx, d.salesEmail, subject, buildAlertText(hot)); err != nil {
			d.log.Error("hot lead email alert failed", "lead_id", hot.LeadID, "error", err)
		}
	}

	return nil
}

func buildAlertText(hot events.LeadWentHot) string {
	var sb strings.Builder
	sb.WriteString("🔥 Hot lead!\n")
	fmt.Fprintf(&sb, "Name: %s\n", hot.Name)
	fmt.Fprintf(&sb, "Phone: %s\n", hot.Phone)
	fmt.Fprintf(&sb, "Platform: %s\n", hot.Platform)
	if hot.BudgetRange != "" {
		fmt.Fprintf(&sb, "Budget: %s\n", hot.BudgetRange)
	}
	if hot.Timeline != "" {
		fmt.Fprintf(&sb, "Timeline: %s\n", hot.Timeline)
	}
	if len(hot.InterestedProjects) > 0 {
		fmt.Fprintf(&sb, "Projects: %s\n", strings.Join(hot.InterestedProjects, ", "))
	}
	sb.WriteString("Follow up as soon as possible.")
	return sb.String()
}
