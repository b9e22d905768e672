// Package renters manages the people renting units. The domain calls
// them tenants; the name here avoids colliding with the organization
// tenancy vocabulary used across the platform.
package renters

import (
	"time"

	"github.com/google/uuid"
)

// Renter represents a person renting from an organization.
type Renter struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"organization_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceID implements tenancy.Resource.
func (r Renter) ResourceID() uuid.UUID { return r.ID }

// OwnerOrg implements tenancy.Resource.
func (r Renter) OwnerOrg() uuid.UUID { return r.OrgID }

// CreateForm is the request body for creating a renter.
type CreateForm struct {
	OrgID    uuid.UUID `json:"organization_id"`
	FullName string    `json:"full_name" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Phone    string    `json:"phone"`
}

// Patch is a partial update.
type Patch struct {
	OrgID    *uuid.UUID `json:"organization_id"`
	FullName *string    `json:"full_name" validate:"omitempty,min=1"`
	Email    *string    `json:"email" validate:"omitempty,email"`
	Phone    *string    `json:"phone"`
}

// RequestedOrg implements tenancy.Reparenting.
func (p Patch) RequestedOrg() (uuid.UUID, bool) {
	if p.OrgID == nil {
		return uuid.Nil, false
	}
	return *p.OrgID, true
}
