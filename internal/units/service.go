package units

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Service applies the scoping policy around unit persistence.
type Service struct {
	med *tenancy.Mediator[Unit, Patch]
}

// NewService builds the service.
func NewService(store tenancy.Store[Unit, Patch], recorder tenancy.Recorder, logger *slog.Logger, onAuditGap func()) *Service {
	return &Service{med: tenancy.NewMediator("unit", store, recorder, logger, onAuditGap)}
}

// Create validates the form and persists a new unit.
func (s *Service) Create(ctx context.Context, p *tenancy.Principal, form CreateForm) (Unit, error) {
	if err := shared.Validate(form); err != nil {
		return Unit{}, err
	}
	rec := Unit{
		PropertyID: form.PropertyID,
		Label:      form.Label,
		Bedrooms:   form.Bedrooms,
		RentCents:  form.RentCents,
		Status:     StatusVacant,
	}
	return s.med.Create(ctx, p, rec, form.OrgID)
}

// Get fetches one unit.
func (s *Service) Get(ctx context.Context, p *tenancy.Principal, id uuid.UUID) (Unit, error) {
	return s.med.Get(ctx, p, id)
}

// List returns one page of units.
func (s *Service) List(ctx context.Context, p *tenancy.Principal, f shared.ListFilters) ([]Unit, int, error) {
	return s.med.List(ctx, p, f)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, p *tenancy.Principal, id uuid.UUID, patch Patch) (Unit, error) {
	if err := shared.Validate(patch); err != nil {
		return Unit{}, err
	}
	return s.med.Update(ctx, p, id, patch)
}

// Delete removes one unit.
func (s *Service) Delete(ctx context.Context, p *tenancy.Principal, id uuid.UUID) error {
	return s.med.Delete(ctx, p, id)
}
