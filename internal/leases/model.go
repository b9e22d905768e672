package leases

import (
	"time"

	"github.com/google/uuid"
)

// Lease statuses.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Lease binds a renter to a unit for a period.
type Lease struct {
	ID           uuid.UUID `json:"id"`
	OrgID        uuid.UUID `json:"organization_id"`
	UnitID       uuid.UUID `json:"unit_id"`
	RenterID     uuid.UUID `json:"renter_id"`
	StartsOn     time.Time `json:"starts_on"`
	EndsOn       time.Time `json:"ends_on"`
	RentCents    int64     `json:"rent_cents"`
	DepositCents int64     `json:"deposit_cents"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResourceID implements tenancy.Resource.
func (l Lease) ResourceID() uuid.UUID { return l.ID }

// OwnerOrg implements tenancy.Resource.
func (l Lease) OwnerOrg() uuid.UUID { return l.OrgID }

// CreateForm is the request body for creating a lease. Composite
// foreign keys tie unit and renter to the same organization as the
// lease itself.
type CreateForm struct {
	OrgID        uuid.UUID `json:"organization_id"`
	UnitID       uuid.UUID `json:"unit_id" validate:"required"`
	RenterID     uuid.UUID `json:"renter_id" validate:"required"`
	StartsOn     time.Time `json:"starts_on" validate:"required"`
	EndsOn       time.Time `json:"ends_on" validate:"required,gtfield=StartsOn"`
	RentCents    int64     `json:"rent_cents" validate:"gte=0"`
	DepositCents int64     `json:"deposit_cents" validate:"gte=0"`
}

// Patch is a partial update.
type Patch struct {
	OrgID        *uuid.UUID `json:"organization_id"`
	EndsOn       *time.Time `json:"ends_on"`
	RentCents    *int64     `json:"rent_cents" validate:"omitempty,gte=0"`
	DepositCents *int64     `json:"deposit_cents" validate:"omitempty,gte=0"`
	Status       *string    `json:"status" validate:"omitempty,oneof=active ended"`
}

// RequestedOrg implements tenancy.Reparenting.
func (p Patch) RequestedOrg() (uuid.UUID, bool) {
	if p.OrgID == nil {
		return uuid.Nil, false
	}
	return *p.OrgID, true
}
