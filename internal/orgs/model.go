package orgs

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant: the unit of data isolation.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateForm is the request body for creating an organization.
type CreateForm struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required,lowercase"`
}

// Patch is a partial update. Slug uniqueness is enforced by the store.
type Patch struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
	Slug *string `json:"slug" validate:"omitempty,min=1,lowercase"`
}
