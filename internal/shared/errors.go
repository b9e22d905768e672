package shared

import "errors"

var (
	// ErrUnauthenticated indicates a missing, invalid or expired credential.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrNoTenant indicates an authenticated user without an organization
	// attempting a tenant-scoped operation.
	ErrNoTenant = errors.New("no organization attached")
	// ErrForbidden indicates an operation reserved for another role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the resource is absent or belongs to another
	// tenant. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict indicates a store-level uniqueness or constraint violation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable indicates the store or a collaborator is unreachable.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
