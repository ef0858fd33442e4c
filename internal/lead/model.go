// Package lead owns the qualified-lead lifecycle: extraction merge,
// qualification tiers and the persisted lead record the dashboard reads.
package lead

import (
	"time"

	"github.com/google/uuid"

	"github.com/AliMahmood99/real-estate-chatbot/internal/messaging"
)

// Status is the qualification tier of a lead. The first four values are
// pipeline-owned; converted and lost are terminal and only ever set by an
// operator.
type Status string

const (
	StatusNew       Status = "new"
	StatusHot       Status = "hot"
	StatusWarm      Status = "warm"
	StatusCold      Status = "cold"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusHot, StatusWarm, StatusCold, StatusConverted, StatusLost:
		return true
	}
	return false
}

// OperatorOwned reports whether s may only be changed by an explicit
// operator action. Automatic classification never writes over these.
func (s Status) OperatorOwned() bool {
	return s == StatusConverted || s == StatusLost
}

// Lead is the persisted prospect record, at most one per
// (platform, external_user_id) pair.
type Lead struct {
	ID                 uuid.UUID
	Platform           messaging.Platform
	ExternalUserID     string
	Name               string
	Phone              string
	Email              *string
	BudgetRange        *string
	Timeline           *string
	PreferredType      *string
	PreferredSize      *string
	PaymentPlan        *string
	InterestedProjects []string
	Status             Status
	Notes              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Extraction is the structured output of one AI extraction pass over a
// conversation. Nil means "not mentioned", never "cleared": the extractor is
// instructed to omit anything the customer did not state or confirm.
type Extraction struct {
	Name               *string  `json:"name"`
	Phone              *string  `json:"phone"`
	Email              *string  `json:"email"`
	BudgetRange        *string  `json:"budget_range"`
	Timeline           *string  `json:"timeline"`
	PreferredType      *string  `json:"preferred_type"`
	PreferredSize      *string  `json:"preferred_size"`
	PaymentPlan        *string  `json:"payment_plan"`
	InterestedProjects []string `json:"interested_projects"`
	VisitIntent        bool     `json:"visit_intent"`
	PricingQuestions   bool     `json:"pricing_questions"`
}

// Ready reports whether the extraction carries enough identity to persist a
// lead. Partial signals without name and phone are re-derived from the full
// history on the next turn, so nothing is lost by holding.
func (e Extraction) Ready() bool {
	return deref(e.Name) != "" && deref(e.Phone) != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
