package tenancy

import (
	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
)

// OpKind classifies an operation for the scoping policy.
type OpKind int

const (
	OpCreate OpKind = iota
	OpRead
	OpReadMany
	OpUpdate
	OpDelete
)

// Operation describes the requested access for one store interaction.
// TargetOrg is the caller-supplied owning organization, uuid.Nil when
// absent; it is only honored for unrestricted principals.
type Operation struct {
	Kind      OpKind
	TargetOrg uuid.UUID
}

// Scope is the filter a store must apply on behalf of a principal.
// A restricted scope becomes a mandatory org predicate on every
// statement; omitting it is a defect, not an optimization.
type Scope struct {
	Unrestricted bool
	OrgID        uuid.UUID
}

// SystemScope is the unrestricted scope used by trusted internal callers
// such as background jobs. Request paths must always go through Decide.
func SystemScope() Scope {
	return Scope{Unrestricted: true}
}

// Decide computes the scope for a principal and operation. Denials are
// returned as errors: shared.ErrUnauthenticated when no principal is
// present, shared.ErrNoTenant when an authenticated user has no
// organization attached.
//
// For Create by a tenant-bound principal the caller-supplied target org
// is overridden: the returned scope always carries the principal's own
// organization, and stores must force-set the record's owner from it.
func Decide(p *Principal, op Operation) (Scope, error) {
	if p == nil {
		return Scope{}, shared.ErrUnauthenticated
	}
	if p.Role == RoleSuperAdmin {
		return Scope{Unrestricted: true, OrgID: op.TargetOrg}, nil
	}
	if p.OrgID == uuid.Nil {
		return Scope{}, shared.ErrNoTenant
	}
	return Scope{OrgID: p.OrgID}, nil
}
