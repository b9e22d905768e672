package properties

import (
	"time"

	"github.com/google/uuid"
)

// Property kinds.
const (
	KindResidential = "residential"
	KindCommercial  = "commercial"
	KindMixed       = "mixed"
)

// Property represents a managed building or estate.
type Property struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"organization_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceID implements tenancy.Resource.
func (p Property) ResourceID() uuid.UUID { return p.ID }

// OwnerOrg implements tenancy.Resource.
func (p Property) OwnerOrg() uuid.UUID { return p.OrgID }

// CreateForm is the request body for creating a property. The
// organization id is honored only for super admins; everyone else
// creates under their own organization regardless of the value sent.
type CreateForm struct {
	OrgID   uuid.UUID `json:"organization_id"`
	Name    string    `json:"name" validate:"required"`
	Address string    `json:"address" validate:"required"`
	City    string    `json:"city"`
	Kind    string    `json:"kind" validate:"required,oneof=residential commercial mixed"`
}

// Patch is a partial update. The owning organization is immutable; a
// patch naming a different owner is rejected upstream.
type Patch struct {
	OrgID   *uuid.UUID `json:"organization_id"`
	Name    *string    `json:"name" validate:"omitempty,min=1"`
	Address *string    `json:"address" validate:"omitempty,min=1"`
	City    *string    `json:"city"`
	Kind    *string    `json:"kind" validate:"omitempty,oneof=residential commercial mixed"`
}

// RequestedOrg implements tenancy.Reparenting.
func (p Patch) RequestedOrg() (uuid.UUID, bool) {
	if p.OrgID == nil {
		return uuid.Nil, false
	}
	return *p.OrgID, true
}
