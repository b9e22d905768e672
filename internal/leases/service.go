package leases

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Service applies the scoping policy around lease persistence.
type Service struct {
	med *tenancy.Mediator[Lease, Patch]
}

// NewService builds the service.
func NewService(store tenancy.Store[Lease, Patch], recorder tenancy.Recorder, logger *slog.Logger, onAuditGap func()) *Service {
	return &Service{med: tenancy.NewMediator("lease", store, recorder, logger, onAuditGap)}
}

// Create validates the form and persists a new lease.
func (s *Service) Create(ctx context.Context, p *tenancy.Principal, form CreateForm) (Lease, error) {
	if err := shared.Validate(form); err != nil {
		return Lease{}, err
	}
	rec := Lease{
		UnitID:       form.UnitID,
		RenterID:     form.RenterID,
		StartsOn:     form.StartsOn,
		EndsOn:       form.EndsOn,
		RentCents:    form.RentCents,
		DepositCents: form.DepositCents,
		Status:       StatusActive,
	}
	return s.med.Create(ctx, p, rec, form.OrgID)
}

// Get fetches one lease.
func (s *Service) Get(ctx context.Context, p *tenancy.Principal, id uuid.UUID) (Lease, error) {
	return s.med.Get(ctx, p, id)
}

// List returns one page of leases.
func (s *Service) List(ctx context.Context, p *tenancy.Principal, f shared.ListFilters) ([]Lease, int, error) {
	return s.med.List(ctx, p, f)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, p *tenancy.Principal, id uuid.UUID, patch Patch) (Lease, error) {
	if err := shared.Validate(patch); err != nil {
		return Lease{}, err
	}
	return s.med.Update(ctx, p, id, patch)
}

// Delete removes one lease.
func (s *Service) Delete(ctx context.Context, p *tenancy.Principal, id uuid.UUID) error {
	return s.med.Delete(ctx, p, id)
}
