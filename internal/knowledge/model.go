// Package knowledge holds the property catalog the reply generator is
// grounded on. The catalog lives in the database, is loaded once at startup
// into process-wide read-only state, and changes only through an explicit
// reload.
package knowledge

import "github.com/google/uuid"

// Project is one development in the catalog.
type Project struct {
	ID             uuid.UUID
	Name           string
	Developer      string
	Location       string
	Area           string
	Description    *string
	Amenities      []string
	DeliveryStatus *string
	Units          []Unit
}

// Unit is one sellable unit type within a project. Price bounds are in EGP.
type Unit struct {
	ID                 uuid.UUID
	ProjectID          uuid.UUID
	UnitType           string
	SizeFrom           *float64
	SizeTo             *float64
	PriceFrom          *float64
	PriceTo            *float64
	FloorOptions       *string
	Views              []string
	PaymentPlans       []string
	AvailabilityStatus string
}
