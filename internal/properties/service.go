package properties

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Service applies the scoping policy around property persistence.
type Service struct {
	med *tenancy.Mediator[Property, Patch]
}

// NewService builds the service. store is typically *Store; tests pass
// an in-memory implementation.
func NewService(store tenancy.Store[Property, Patch], recorder tenancy.Recorder, logger *slog.Logger, onAuditGap func()) *Service {
	return &Service{med: tenancy.NewMediator("property", store, recorder, logger, onAuditGap)}
}

// Create validates the form and persists a new property.
func (s *Service) Create(ctx context.Context, p *tenancy.Principal, form CreateForm) (Property, error) {
	if err := shared.Validate(form); err != nil {
		return Property{}, err
	}
	rec := Property{
		Name:    form.Name,
		Address: form.Address,
		City:    form.City,
		Kind:    form.Kind,
	}
	return s.med.Create(ctx, p, rec, form.OrgID)
}

// Get fetches one property.
func (s *Service) Get(ctx context.Context, p *tenancy.Principal, id uuid.UUID) (Property, error) {
	return s.med.Get(ctx, p, id)
}

// List returns one page of properties.
func (s *Service) List(ctx context.Context, p *tenancy.Principal, f shared.ListFilters) ([]Property, int, error) {
	return s.med.List(ctx, p, f)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, p *tenancy.Principal, id uuid.UUID, patch Patch) (Property, error) {
	if err := shared.Validate(patch); err != nil {
		return Property{}, err
	}
	return s.med.Update(ctx, p, id, patch)
}

// Delete removes one property.
func (s *Service) Delete(ctx context.Context, p *tenancy.Principal, id uuid.UUID) error {
	return s.med.Delete(ctx, p, id)
}
