package tenancy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
)

// Audit actions recorded by the mediator.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Resource is implemented by every tenant-owned record served through
// the mediator.
type Resource interface {
	ResourceID() uuid.UUID
	OwnerOrg() uuid.UUID
}

// Reparenting is implemented by patch types that can carry a
// caller-supplied owner org. The owning organization of a record is
// immutable; a patch asking for a different owner is rejected.
type Reparenting interface {
	RequestedOrg() (uuid.UUID, bool)
}

// Store is the persistence surface the mediator drives. Implementations
// must apply the scope verbatim: a restricted scope means every
// statement carries an org predicate in addition to the record id, so a
// cross-tenant row behaves exactly like an absent one.
type Store[R Resource, P any] interface {
	Insert(ctx context.Context, rec R, org uuid.UUID) (R, error)
	FindOne(ctx context.Context, sc Scope, id uuid.UUID) (R, error)
	FindMany(ctx context.Context, sc Scope, f shared.ListFilters) ([]R, int, error)
	UpdateOne(ctx context.Context, sc Scope, id uuid.UUID, patch P) (R, error)
	DeleteOne(ctx context.Context, sc Scope, id uuid.UUID) error
}

// AuditEntry is the record the mediator appends after a mutation.
type AuditEntry struct {
	Entity   string
	EntityID uuid.UUID
	UserID   uuid.UUID
	OrgID    uuid.UUID // uuid.Nil for actions on global resources
	Action   string
	Meta     map[string]any
}

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, e AuditEntry) error
}

// Mediator applies the tenant-scoping policy uniformly around a store
// for one resource type. It is stateless; one instance per resource
// type is shared across requests.
type Mediator[R Resource, P any] struct {
	entity   string
	store    Store[R, P]
	recorder Recorder
	logger   *slog.Logger
	onGap    func()
}

// NewMediator constructs a mediator for one resource type. entity names
// the resource in audit entries. onGap, when non-nil, is invoked every
// time an audit append fails after a successful mutation.
func NewMediator[R Resource, P any](entity string, store Store[R, P], recorder Recorder, logger *slog.Logger, onGap func()) *Mediator[R, P] {
	return &Mediator[R, P]{entity: entity, store: store, recorder: recorder, logger: logger, onGap: onGap}
}

// Create persists a new record under the organization the policy
// selects. Tenant-bound principals always create under their own
// organization regardless of requestedOrg; unrestricted principals must
// name the target organization explicitly.
func (m *Mediator[R, P]) Create(ctx context.Context, p *Principal, rec R, requestedOrg uuid.UUID) (R, error) {
	var zero R
	sc, err := Decide(p, Operation{Kind: OpCreate, TargetOrg: requestedOrg})
	if err != nil {
		return zero, err
	}
	org := sc.OrgID
	if sc.Unrestricted && org == uuid.Nil {
		return zero, fmt.Errorf("%w: owning organization required", shared.ErrValidation)
	}
	created, err := m.store.Insert(ctx, rec, org)
	if err != nil {
		return zero, err
	}
	m.record(ctx, p, ActionCreate, created, nil)
	return created, nil
}

// Get fetches one record. A lookup miss and a cross-tenant row are both
// shared.ErrNotFound.
func (m *Mediator[R, P]) Get(ctx context.Context, p *Principal, id uuid.UUID) (R, error) {
	var zero R
	sc, err := Decide(p, Operation{Kind: OpRead})
	if err != nil {
		return zero, err
	}
	return m.store.FindOne(ctx, sc, id)
}

// List returns one page of records with the mandatory tenant filter
// merged into the caller-supplied filters.
func (m *Mediator[R, P]) List(ctx context.Context, p *Principal, f shared.ListFilters) ([]R, int, error) {
	sc, err := Decide(p, Operation{Kind: OpReadMany})
	if err != nil {
		return nil, 0, err
	}
	return m.store.FindMany(ctx, sc, f)
}

// Update applies a patch to one record under the same scoping as Get.
// A patch carrying an owner org different from the record's is a no-op
// returning shared.ErrNotFound.
func (m *Mediator[R, P]) Update(ctx context.Context, p *Principal, id uuid.UUID, patch P) (R, error) {
	var zero R
	sc, err := Decide(p, Operation{Kind: OpUpdate})
	if err != nil {
		return zero, err
	}
	current, err := m.store.FindOne(ctx, sc, id)
	if err != nil {
		return zero, err
	}
	if rp, ok := any(patch).(Reparenting); ok {
		if org, set := rp.RequestedOrg(); set && org != current.OwnerOrg() {
			return zero, shared.ErrNotFound
		}
	}
	updated, err := m.store.UpdateOne(ctx, sc, id, patch)
	if err != nil {
		return zero, err
	}
	m.record(ctx, p, ActionUpdate, updated, nil)
	return updated, nil
}

// Delete removes one record under the same scoping as Get. The audit
// entry is appended only after the store delete succeeds.
func (m *Mediator[R, P]) Delete(ctx context.Context, p *Principal, id uuid.UUID) error {
	sc, err := Decide(p, Operation{Kind: OpDelete})
	if err != nil {
		return err
	}
	existing, err := m.store.FindOne(ctx, sc, id)
	if err != nil {
		return err
	}
	if err := m.store.DeleteOne(ctx, sc, id); err != nil {
		return err
	}
	m.record(ctx, p, ActionDelete, existing, nil)
	return nil
}

// Entity returns the audit entity name for this mediator.
func (m *Mediator[R, P]) Entity() string {
	return m.entity
}

// record appends an audit entry. A failure here never fails the request:
// the mutation already succeeded and must not be reported as failed. The
// gap is logged and surfaced to operators instead.
func (m *Mediator[R, P]) record(ctx context.Context, p *Principal, action string, rec R, meta map[string]any) {
	if m.recorder == nil {
		return
	}
	entry := AuditEntry{
		Entity:   m.entity,
		EntityID: rec.ResourceID(),
		UserID:   p.UserID,
		OrgID:    rec.OwnerOrg(),
		Action:   action,
		Meta:     meta,
	}
	if err := m.recorder.Record(ctx, entry); err != nil {
		if m.logger != nil {
			m.logger.Error("audit append failed after mutation",
				slog.String("entity", m.entity),
				slog.String("entity_id", rec.ResourceID().String()),
				slog.String("action", action),
				slog.Any("error", err))
		}
		if m.onGap != nil {
			m.onGap()
		}
	}
}
