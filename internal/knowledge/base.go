package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

// fallbackGrounding keeps the bot honest when the catalog is empty: with no
// facts to ground on, every property question becomes a human handoff.
const fallbackGrounding = "No property catalog is currently available. " +
	"Do not state any project names, prices, sizes or payment plans. " +
	"For any property question, apologize and offer to connect the customer with a sales agent."

// Base is the process-wide read-only view of the catalog. Readers get the
// pre-rendered grounding text; writers exist only in the form of Reload.
type Base struct {
	repo *Repository
	log  *logger.Logger

	mu        sync.RWMutex
	grounding string
	catalog   []Project
}

func NewBase(repo *Repository, log *logger.Logger) *Base {
	return &Base{repo: repo, log: log, grounding: fallbackGrounding}
}

// Load populates the base from the database. Called once at startup; the
// process serves the fallback grounding until it succeeds.
func (b *Base) Load(ctx context.Context) error {
	projects, err := b.repo.LoadCatalog(ctx)
	if err != nil {
		return err
	}

	grounding := fallbackGrounding
	if len(projects) > 0 {
		grounding = Format(projects)
	}

	b.mu.Lock()
	b.grounding = grounding
	b.catalog = projects
	b.mu.Unlock()

	b.log.Info("knowledge base loaded", "projects", len(projects))
	return nil
}

// Reload re-reads the catalog. Exposed through the admin surface so catalog
// edits become visible without a restart. On failure the previous snapshot
// stays in place.
func (b *Base) Reload(ctx context.Context) error {
	return b.Load(ctx)
}

// Grounding returns the rendered catalog text for prompt assembly.
func (b *Base) Grounding() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.grounding
}

// Projects returns the current catalog snapshot. Callers must treat the
// slice as read-only; it is replaced wholesale on reload, never mutated.
func (b *Base) Projects() []Project {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.catalog
}

// ProjectCount reports how many projects the current snapshot holds.
func (b *Base) ProjectCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.catalog)
}

// Format renders the catalog as the grounding block handed to the reply
// generator. Plain labeled lines, one project per section; the model quotes
// from this text and must not go beyond it.
func Format(projects []Project) string {
	var sb strings.Builder
	sb.WriteString("AVAILABLE PROJECTS:\n")

	for i, p := range projects {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, p.Name)
		if p.Developer != "" {
			fmt.Fprintf(&sb, " by %s", p.Developer)
		}
		sb.WriteString("\n")
		if p.Location != "" || p.Area != "" {
			fmt.Fprintf(&sb, "   Location: %s", joinNonEmpty(p.Location, p.Area))
			sb.WriteString("\n")
		}
		if p.Description != nil && *p.Description != "" {
			fmt.Fprintf(&sb, "   About: %s\n", *p.Description)
		}
		if len(p.Amenities) > 0 {
			fmt.Fprintf(&sb, "   Amenities: %s\n", strings.Join(p.Amenities, ", "))
		}
		if p.DeliveryStatus != nil && *p.DeliveryStatus != "" {
			fmt.Fprintf(&sb, "   Delivery: %s\n", *p.DeliveryStatus)
		}

		for _, u := range p.Units {
			fmt.Fprintf(&sb, "   - %s", u.UnitType)
			if r := formatRange(u.SizeFrom, u.SizeTo, "%.0f"); r != "" {
				fmt.Fprintf(&sb, ", %s sqm", r)
			}
			if r := formatRange(u.PriceFrom, u.PriceTo, "%.0f"); r != "" {
				fmt.Fprintf(&sb, ", %s EGP", r)
			}
			if u.FloorOptions != nil && *u.FloorOptions != "" {
				fmt.Fprintf(&sb, ", floors: %s", *u.FloorOptions)
			}
			if len(u.Views) > 0 {
				fmt.Fprintf(&sb, ", views: %s", strings.Join(u.Views, "/"))
			}
			if len(u.PaymentPlans) > 0 {
				fmt.Fprintf(&sb, ", payment: %s", strings.Join(u.PaymentPlans, "; "))
			}
			if u.AvailabilityStatus != "" && u.AvailabilityStatus != "available" {
				fmt.Fprintf(&sb, " (%s)", u.AvailabilityStatus)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func formatRange(from, to *float64, format string) string {
	switch {
	case from != nil && to != nil && *from != *to:
		return fmt.Sprintf(format+"-"+format, *from, *to)
	case from != nil:
		return fmt.Sprintf(format, *from)
	case to != nil:
		return fmt.Sprintf(format, *to)
	}
	return ""
}
