package orgs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// RepositoryPort defines data access methods for organizations.
type RepositoryPort interface {
	Insert(ctx context.Context, rec Organization) (Organization, error)
	FindOne(ctx context.Context, id uuid.UUID) (Organization, error)
	FindMany(ctx context.Context, f shared.ListFilters) ([]Organization, int, error)
	UpdateOne(ctx context.Context, id uuid.UUID, patch Patch) (Organization, error)
	DeleteOne(ctx context.Context, id uuid.UUID) error
}

// Service manages the organization directory. Organizations are the
// tenants themselves, not tenant-owned rows, so the generic mediator
// does not apply: directory management is reserved for super admins,
// and a tenant-bound principal only sees their own organization.
type Service struct {
	repo     RepositoryPort
	recorder tenancy.Recorder
	logger   *slog.Logger
	onGap    func()
}

// NewService builds the service.
func NewService(repo RepositoryPort, recorder tenancy.Recorder, logger *slog.Logger, onAuditGap func()) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger, onGap: onAuditGap}
}

// Create registers a new organization. Super admin only.
func (s *Service) Create(ctx context.Context, p *tenancy.Principal, form CreateForm) (Organization, error) {
	if err := requireSuperAdmin(p); err != nil {
		return Organization{}, err
	}
	if err := shared.Validate(form); err != nil {
		return Organization{}, err
	}
	created, err := s.repo.Insert(ctx, Organization{Name: form.Name, Slug: form.Slug})
	if err != nil {
		return Organization{}, err
	}
	s.record(ctx, p, tenancy.ActionCreate, created.ID)
	return created, nil
}

// Get fetches one organization. A tenant-bound principal can only fetch
// their own; any other id behaves as absent.
func (s *Service) Get(ctx context.Context, p *tenancy.Principal, id uuid.UUID) (Organization, error) {
	sc, err := tenancy.Decide(p, tenancy.Operation{Kind: tenancy.OpRead})
	if err != nil {
		return Organization{}, err
	}
	if !sc.Unrestricted && id != sc.OrgID {
		return Organization{}, shared.ErrNotFound
	}
	return s.repo.FindOne(ctx, id)
}

// List returns the directory. Super admins see every organization;
// everyone else gets a single-element listing of their own.
func (s *Service) List(ctx context.Context, p *tenancy.Principal, f shared.ListFilters) ([]Organization, int, error) {
	sc, err := tenancy.Decide(p, tenancy.Operation{Kind: tenancy.OpReadMany})
	if err != nil {
		return nil, 0, err
	}
	if sc.Unrestricted {
		return s.repo.FindMany(ctx, f)
	}
	own, err := s.repo.FindOne(ctx, sc.OrgID)
	if err != nil {
		return nil, 0, err
	}
	return []Organization{own}, 1, nil
}

// Update renames or reslugs an organization. Super admin only.
func (s *Service) Update(ctx context.Context, p *tenancy.Principal, id uuid.UUID, patch Patch) (Organization, error) {
	if err := requireSuperAdmin(p); err != nil {
		return Organization{}, err
	}
	if err := shared.Validate(patch); err != nil {
		return Organization{}, err
	}
	updated, err := s.repo.UpdateOne(ctx, id, patch)
	if err != nil {
		return Organization{}, err
	}
	s.record(ctx, p, tenancy.ActionUpdate, updated.ID)
	return updated, nil
}

// Delete removes an organization. Super admin only.
func (s *Service) Delete(ctx context.Context, p *tenancy.Principal, id uuid.UUID) error {
	if err := requireSuperAdmin(p); err != nil {
		return err
	}
	if err := s.repo.DeleteOne(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, tenancy.ActionDelete, id)
	return nil
}

func requireSuperAdmin(p *tenancy.Principal) error {
	if p == nil {
		return shared.ErrUnauthenticated
	}
	if !p.SuperAdmin() {
		return shared.ErrForbidden
	}
	return nil
}

func (s *Service) record(ctx context.Context, p *tenancy.Principal, action string, orgID uuid.UUID) {
	if s.recorder == nil {
		return
	}
	entry := tenancy.AuditEntry{
		Entity:   "organization",
		EntityID: orgID,
		UserID:   p.UserID,
		OrgID:    orgID,
		Action:   action,
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		if s.logger != nil {
			s.logger.Error("audit append failed after mutation",
				slog.String("entity", "organization"),
				slog.String("entity_id", orgID.String()),
				slog.String("action", action),
				slog.Any("error", err))
		}
		if s.onGap != nil {
			s.onGap()
		}
	}
}
