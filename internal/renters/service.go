package renters

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Service applies the scoping policy around renter persistence.
type Service struct {
	med *tenancy.Mediator[Renter, Patch]
}

// NewService builds the service.
func NewService(store tenancy.Store[Renter, Patch], recorder tenancy.Recorder, logger *slog.Logger, onAuditGap func()) *Service {
	return &Service{med: tenancy.NewMediator("renter", store, recorder, logger, onAuditGap)}
}

// Create validates the form and persists a new renter.
func (s *Service) Create(ctx context.Context, p *tenancy.Principal, form CreateForm) (Renter, error) {
	if err := shared.Validate(form); err != nil {
		return Renter{}, err
	}
	rec := Renter{
		FullName: form.FullName,
		Email:    form.Email,
		Phone:    form.Phone,
	}
	return s.med.Create(ctx, p, rec, form.OrgID)
}

// Get fetches one renter.
func (s *Service) Get(ctx context.Context, p *tenancy.Principal, id uuid.UUID) (Renter, error) {
	return s.med.Get(ctx, p, id)
}

// List returns one page of renters.
func (s *Service) List(ctx context.Context, p *tenancy.Principal, f shared.ListFilters) ([]Renter, int, error) {
	return s.med.List(ctx, p, f)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, p *tenancy.Principal, id uuid.UUID, patch Patch) (Renter, error) {
	if err := shared.Validate(patch); err != nil {
		return Renter{}, err
	}
	return s.med.Update(ctx, p, id, patch)
}

// Delete removes one renter.
func (s *Service) Delete(ctx context.Context, p *tenancy.Principal, id uuid.UUID) error {
	return s.med.Delete(ctx, p, id)
}
