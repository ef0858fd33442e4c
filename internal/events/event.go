// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/AliMahmood99/real-estate-chatbot/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a qualified lead record is first persisted
// (name and phone both known).
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	Platform string    `json:"platform"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadWentHot is published on a status transition into hot. It is
// edge-triggered: re-classifying an already-hot lead does not re-publish.
type LeadWentHot struct {
	BaseEvent
	LeadID             uuid.UUID `json:"leadId"`
	Platform           string    `json:"platform"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone"`
	BudgetRange        string    `json:"budgetRange,omitempty"`
	Timeline           string    `json:"timeline,omitempty"`
	InterestedProjects []string  `json:"interestedProjects,omitempty"`
}

func (e LeadWentHot) EventName() string { return "leads.went_hot" }
