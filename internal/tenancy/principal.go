package tenancy

import "github.com/google/uuid"

// Role is the coarse authorization level embedded in a credential.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleOrgAdmin   Role = "ORG_ADMIN"
	RoleOrgUser    Role = "ORG_USER"
)

// Valid reports whether the role is one the platform knows about.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleOrgAdmin, RoleOrgUser:
		return true
	}
	return false
}

// Principal is the authenticated identity and tenant context for one
// request. Fields are a snapshot taken at credential issuance; they are
// not re-derived from the store per request.
type Principal struct {
	UserID uuid.UUID
	Role   Role
	OrgID  uuid.UUID // uuid.Nil only for super admins
}

// SuperAdmin reports whether the principal is exempt from tenant scoping.
func (p *Principal) SuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}
