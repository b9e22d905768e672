package units

import (
	"time"

	"github.com/google/uuid"
)

// Unit statuses.
const (
	StatusVacant   = "vacant"
	StatusOccupied = "occupied"
)

// Unit represents a rentable unit inside a property.
type Unit struct {
	ID         uuid.UUID `json:"id"`
	OrgID      uuid.UUID `json:"organization_id"`
	PropertyID uuid.UUID `json:"property_id"`
	Label      string    `json:"label"`
	Bedrooms   int       `json:"bedrooms"`
	RentCents  int64     `json:"rent_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ResourceID implements tenancy.Resource.
func (u Unit) ResourceID() uuid.UUID { return u.ID }

// OwnerOrg implements tenancy.Resource.
func (u Unit) OwnerOrg() uuid.UUID { return u.OrgID }

// CreateForm is the request body for creating a unit. The schema ties
// the unit to a property of the same organization; a cross-tenant
// property id fails the composite foreign key and surfaces as a
// conflict.
type CreateForm struct {
	OrgID      uuid.UUID `json:"organization_id"`
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
	Label      string    `json:"label" validate:"required"`
	Bedrooms   int       `json:"bedrooms" validate:"gte=0"`
	RentCents  int64     `json:"rent_cents" validate:"gte=0"`
}

// Patch is a partial update.
type Patch struct {
	OrgID     *uuid.UUID `json:"organization_id"`
	Label     *string    `json:"label" validate:"omitempty,min=1"`
	Bedrooms  *int       `json:"bedrooms" validate:"omitempty,gte=0"`
	RentCents *int64     `json:"rent_cents" validate:"omitempty,gte=0"`
	Status    *string    `json:"status" validate:"omitempty,oneof=vacant occupied"`
}

// RequestedOrg implements tenancy.Reparenting.
func (p Patch) RequestedOrg() (uuid.UUID, bool) {
	if p.OrgID == nil {
		return uuid.Nil, false
	}
	return *p.OrgID, true
}
