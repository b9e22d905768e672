package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-pm/keystone/internal/shared"
)

type widget struct {
	ID    uuid.UUID
	OrgID uuid.UUID
	Name  string
}

func (w widget) ResourceID() uuid.UUID { return w.ID }
func (w widget) OwnerOrg() uuid.UUID   { return w.OrgID }

type widgetPatch struct {
	Name  *string
	OrgID *uuid.UUID
}

func (p widgetPatch) RequestedOrg() (uuid.UUID, bool) {
	if p.OrgID == nil {
		return uuid.Nil, false
	}
	return *p.OrgID, true
}

// fakeStore keeps widgets in a map and applies the scope the way a SQL
// store would: a restricted scope adds an org predicate to every lookup.
type fakeStore struct {
	rows      map[uuid.UUID]widget
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uuid.UUID]widget)}
}

func (s *fakeStore) visible(sc Scope, w widget) bool {
	return sc.Unrestricted || w.OrgID == sc.OrgID
}

func (s *fakeStore) Insert(ctx context.Context, rec widget, org uuid.UUID) (widget, error) {
	rec.ID = uuid.New()
	rec.OrgID = org
	s.rows[rec.ID] = rec
	return rec, nil
}

func (s *fakeStore) FindOne(ctx context.Context, sc Scope, id uuid.UUID) (widget, error) {
	w, ok := s.rows[id]
	if !ok || !s.visible(sc, w) {
		return widget{}, shared.ErrNotFound
	}
	return w, nil
}

func (s *fakeStore) FindMany(ctx context.Context, sc Scope, f shared.ListFilters) ([]widget, int, error) {
	var out []widget
	for _, w := range s.rows {
		if s.visible(sc, w) {
			out = append(out, w)
		}
	}
	return out, len(out), nil
}

func (s *fakeStore) UpdateOne(ctx context.Context, sc Scope, id uuid.UUID, patch widgetPatch) (widget, error) {
	w, err := s.FindOne(ctx, sc, id)
	if err != nil {
		return widget{}, err
	}
	if patch.Name != nil {
		w.Name = *patch.Name
	}
	s.rows[id] = w
	return w, nil
}

func (s *fakeStore) DeleteOne(ctx context.Context, sc Scope, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, err := s.FindOne(ctx, sc, id); err != nil {
		return err
	}
	delete(s.rows, id)
	return nil
}

type fakeRecorder struct {
	entries []AuditEntry
	err     error
}

func (r *fakeRecorder) Record(ctx context.Context, e AuditEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func orgPrincipal(org uuid.UUID) *Principal {
	return &Principal{UserID: uuid.New(), Role: RoleOrgUser, OrgID: org}
}

func TestMediatorCreateForcesOwnOrg(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	med := NewMediator[widget, widgetPatch]("widget", store, recorder, nil, nil)

	own := uuid.New()
	other := uuid.New()
	created, err := med.Create(context.Background(), orgPrincipal(own), widget{Name: "a"}, other)
	require.NoError(t, err)
	assert.Equal(t, own, created.OrgID, "requested org must be ignored for tenant-bound principals")

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, ActionCreate, recorder.entries[0].Action)
	assert.Equal(t, created.ID, recorder.entries[0].EntityID)
	assert.Equal(t, own, recorder.entries[0].OrgID)
}

func TestMediatorCreateSuperAdminNeedsTargetOrg(t *testing.T) {
	med := NewMediator[widget, widgetPatch]("widget", newFakeStore(), nil, nil, nil)
	admin := &Principal{UserID: uuid.New(), Role: RoleSuperAdmin}

	_, err := med.Create(context.Background(), admin, widget{Name: "a"}, uuid.Nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	target := uuid.New()
	created, err := med.Create(context.Background(), admin, widget{Name: "a"}, target)
	require.NoError(t, err)
	assert.Equal(t, target, created.OrgID)
}

func TestMediatorCrossTenantReadIsNotFound(t *testing.T) {
	store := newFakeStore()
	med := NewMediator[widget, widgetPatch]("widget", store, nil, nil, nil)

	owner := uuid.New()
	created, err := med.Create(context.Background(), orgPrincipal(owner), widget{Name: "a"}, uuid.Nil)
	require.NoError(t, err)

	// same id, different tenant
	_, err = med.Get(context.Background(), orgPrincipal(uuid.New()), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	got, err := med.Get(context.Background(), orgPrincipal(owner), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestMediatorListIsScoped(t *testing.T) {
	store := newFakeStore()
	med := NewMediator[widget, widgetPatch]("widget", store, nil, nil, nil)

	orgA := uuid.New()
	orgB := uuid.New()
	_, err := med.Create(context.Background(), orgPrincipal(orgA), widget{Name: "a"}, uuid.Nil)
	require.NoError(t, err)
	_, err = med.Create(context.Background(), orgPrincipal(orgB), widget{Name: "b"}, uuid.Nil)
	require.NoError(t, err)

	items, total, err := med.List(context.Background(), orgPrincipal(orgA), shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, orgA, items[0].OrgID)

	admin := &Principal{UserID: uuid.New(), Role: RoleSuperAdmin}
	_, total, err = med.List(context.Background(), admin, shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestMediatorUpdateRejectsReparenting(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	med := NewMediator[widget, widgetPatch]("widget", store, recorder, nil, nil)

	org := uuid.New()
	p := orgPrincipal(org)
	created, err := med.Create(context.Background(), p, widget{Name: "a"}, uuid.Nil)
	require.NoError(t, err)

	other := uuid.New()
	_, err = med.Update(context.Background(), p, created.ID, widgetPatch{OrgID: &other})
	require.ErrorIs(t, err, shared.ErrNotFound)

	// restating the current owner is fine
	name := "b"
	updated, err := med.Update(context.Background(), p, created.ID, widgetPatch{Name: &name, OrgID: &org})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Name)
}

func TestMediatorDeleteRecordsAfterRemoval(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	med := NewMediator[widget, widgetPatch]("widget", store, recorder, nil, nil)

	org := uuid.New()
	p := orgPrincipal(org)
	created, err := med.Create(context.Background(), p, widget{Name: "a"}, uuid.Nil)
	require.NoError(t, err)

	require.NoError(t, med.Delete(context.Background(), p, created.ID))
	_, err = med.Get(context.Background(), p, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.Len(t, recorder.entries, 2)
	assert.Equal(t, ActionDelete, recorder.entries[1].Action)
	assert.Equal(t, created.ID, recorder.entries[1].EntityID)
}

func TestMediatorDeleteFailureSkipsAudit(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	med := NewMediator[widget, widgetPatch]("widget", store, recorder, nil, nil)

	org := uuid.New()
	p := orgPrincipal(org)
	created, err := med.Create(context.Background(), p, widget{Name: "a"}, uuid.Nil)
	require.NoError(t, err)

	store.deleteErr = errors.New("connection reset")
	require.Error(t, med.Delete(context.Background(), p, created.ID))

	// only the create entry exists
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, ActionCreate, recorder.entries[0].Action)
}

func TestMediatorAuditGapDoesNotFailMutation(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{err: errors.New("audit store down")}
	gaps := 0
	med := NewMediator[widget, widgetPatch]("widget", store, recorder, nil, func() { gaps++ })

	created, err := med.Create(context.Background(), orgPrincipal(uuid.New()), widget{Name: "a"}, uuid.Nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 1, gaps)
}
