package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/tenancy"
)

// User represents an account able to authenticate.
type User struct {
	ID           uuid.UUID
	OrgID        uuid.UUID // uuid.Nil for super admins
	Email        string
	Name         string
	PasswordHash string
	Role         tenancy.Role
	IsActive     bool
	CreatedAt    time.Time
}
