package lead

import (
	"context"

	"github.com/google/uuid"

	"github.com/AliMahmood99/real-estate-chatbot/internal/events"
	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
	"github.com/AliMahmood99/real-estate-chatbot/platform/apperr"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
	"github.com/AliMahmood99/real-estate-chatbot/platform/phone"
)

// Store is the persistence boundary the service drives.
type Store interface {
	ApplyExtraction(ctx context.Context, platform messaging.Platform, externalUserID string, partial Extraction, auto Status) (*MergeOutcome, error)
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Lead, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	Stats(ctx context.Context) (Stats, error)
}

// Service coordinates extraction merging, classification and the domain
// events other modules react to.
type Service struct {
	repo       Store
	classifier *Classifier
	bus        events.Bus
	log        *logger.Logger
}

func NewService(repo Store, classifier *Classifier, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, classifier: classifier, bus: bus, log: log}
}

// ApplyExtraction merges one extraction pass into the stored lead for the
// customer, classifies it, and publishes the hot-lead event on the upward
// edge. latestText is the customer's most recent message, used for keyword
// signals. Errors here never block reply delivery; the caller logs and moves
// on.
func (s *Service) ApplyExtraction(ctx context.Context, platform messaging.Platform, externalUserID string, partial Extraction, latestText string) error {
	// An empty extraction still classifies: the keyword scan over the
	// latest message is the deterministic backstop for turns where the
	// model reports no fields.
	if partial.Phone != nil {
		// Falls back to the trimmed raw value when parsing fails; a number
		// in local format beats no number.
		normalized := phone.NormalizeE164(*partial.Phone)
		partial.Phone = &normalized
	}

	auto := s.classifier.Classify(Signals{
		VisitIntent:      partial.VisitIntent,
		PricingQuestions: partial.PricingQuestions,
		Text:             latestText,
	})

	outcome, err := s.repo.ApplyExtraction(ctx, platform, externalUserID, partial, auto)
	if err != nil {
		return err
	}
	if outcome == nil {
		s.log.Debug("extraction held, lead identity incomplete",
			"platform", platform, "external_user_id", externalUserID)
		return nil
	}

	if outcome.Created {
		s.log.Info("lead created",
			"lead_id", outcome.Lead.ID,
			"platform", platform,
			"status", outcome.Lead.Status)
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    outcome.Lead.ID,
			Platform:  string(platform),
			Name:      outcome.Lead.Name,
			Phone:     outcome.Lead.Phone,
		})
	}

	if outcome.WentHot {
		s.log.Info("lead went hot",
			"lead_id", outcome.Lead.ID,
			"platform", platform,
			"prior_status", outcome.PriorStatus)
		s.bus.Publish(ctx, events.LeadWentHot{
			BaseEvent:          events.NewBaseEvent(),
			LeadID:             outcome.Lead.ID,
			Platform:           string(platform),
			Name:               outcome.Lead.Name,
			Phone:              outcome.Lead.Phone,
			BudgetRange:        deref(outcome.Lead.BudgetRange),
			Timeline:           deref(outcome.Lead.Timeline),
			InterestedProjects: outcome.Lead.InterestedProjects,
		})
	}
	return nil
}

// Get returns one lead by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a filtered, paginated lead listing plus the unpaged total.
func (s *Service) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.repo.List(ctx, params)
}

// OperatorUpdate applies an admin patch. Unlike the pipeline path it may set
// any status, including the terminal ones, and may write notes.
func (s *Service) OperatorUpdate(ctx context.Context, id uuid.UUID, params UpdateParams) (Lead, error) {
	if params.Status != nil && !params.Status.Valid() {
		return Lead{}, apperr.Validation("invalid lead status")
	}
	if params.Phone != nil {
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}
	return s.repo.Update(ctx, id, params)
}

// CountByStatus exposes the dashboard tier breakdown.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// Stats exposes the dashboard aggregates.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}
