package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Entry is one retrieved audit log row joined with the acting user.
type Entry struct {
	ID         uuid.UUID      `json:"id"`
	OrgID      uuid.UUID      `json:"organization_id,omitempty"`
	Entity     string         `json:"entity"`
	EntityID   uuid.UUID      `json:"entity_id"`
	UserID     uuid.UUID      `json:"user_id"`
	ActorEmail string         `json:"actor_email"`
	Action     string         `json:"action"`
	Meta       map[string]any `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Repository provides read access to audit_logs. Both queries return
// rows ordered by created_at descending and apply the scope verbatim.
type Repository interface {
	LogsByUser(ctx context.Context, sc tenancy.Scope, userID uuid.UUID, limit int) ([]Entry, error)
	LogsForEntity(ctx context.Context, sc tenancy.Scope, entity string, entityID uuid.UUID, limit int) ([]Entry, error)
}

// Service coordinates tenant-scoped audit retrieval.
type Service struct {
	repo Repository
}

// NewService builds the audit read service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const defaultLimit = 100

// LogsByUser returns the acting user's trail, newest first.
func (s *Service) LogsByUser(ctx context.Context, p *tenancy.Principal, userID uuid.UUID) ([]Entry, error) {
	sc, err := tenancy.Decide(p, tenancy.Operation{Kind: tenancy.OpReadMany})
	if err != nil {
		return nil, err
	}
	return s.repo.LogsByUser(ctx, sc, userID, defaultLimit)
}

// LogsForEntity returns the trail for one entity, newest first.
func (s *Service) LogsForEntity(ctx context.Context, p *tenancy.Principal, entity string, entityID uuid.UUID) ([]Entry, error) {
	sc, err := tenancy.Decide(p, tenancy.Operation{Kind: tenancy.OpReadMany})
	if err != nil {
		return nil, err
	}
	return s.repo.LogsForEntity(ctx, sc, entity, entityID, defaultLimit)
}
