package orgs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

type mockRepository struct {
	rows map[uuid.UUID]Organization
}

func newMockRepository() *mockRepository {
	return &mockRepository{rows: make(map[uuid.UUID]Organization)}
}

func (m *mockRepository) Insert(ctx context.Context, rec Organization) (Organization, error) {
	for _, o := range m.rows {
		if o.Slug == rec.Slug {
			return Organization{}, shared.ErrConflict
		}
	}
	rec.ID = uuid.New()
	m.rows[rec.ID] = rec
	return rec, nil
}

func (m *mockRepository) FindOne(ctx context.Context, id uuid.UUID) (Organization, error) {
	o, ok := m.rows[id]
	if !ok {
		return Organization{}, shared.ErrNotFound
	}
	return o, nil
}

func (m *mockRepository) FindMany(ctx context.Context, f shared.ListFilters) ([]Organization, int, error) {
	var out []Organization
	for _, o := range m.rows {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *mockRepository) UpdateOne(ctx context.Context, id uuid.UUID, patch Patch) (Organization, error) {
	o, ok := m.rows[id]
	if !ok {
		return Organization{}, shared.ErrNotFound
	}
	if patch.Name != nil {
		o.Name = *patch.Name
	}
	if patch.Slug != nil {
		o.Slug = *patch.Slug
	}
	m.rows[id] = o
	return o, nil
}

func (m *mockRepository) DeleteOne(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func superAdmin() *tenancy.Principal {
	return &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleSuperAdmin}
}

func TestDirectoryWritesRequireSuperAdmin(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)

	member := &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: uuid.New()}
	_, err := svc.Create(context.Background(), member, CreateForm{Name: "Acme", Slug: "acme"})
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Update(context.Background(), member, uuid.New(), Patch{})
	require.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.Delete(context.Background(), member, uuid.New())
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Create(context.Background(), nil, CreateForm{Name: "Acme", Slug: "acme"})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestCreateAndList(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	admin := superAdmin()

	a, err := svc.Create(context.Background(), admin, CreateForm{Name: "Acme Property Group", Slug: "acme"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, CreateForm{Name: "Borealis Homes", Slug: "borealis"})
	require.NoError(t, err)

	all, total, err := svc.List(context.Background(), admin, shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	member := &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgUser, OrgID: a.ID}
	own, total, err := svc.List(context.Background(), member, shared.ListFilters{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, own, 1)
	assert.Equal(t, a.ID, own[0].ID)
}

func TestGetForeignOrgIsNotFound(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	admin := superAdmin()

	a, err := svc.Create(context.Background(), admin, CreateForm{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), admin, CreateForm{Name: "Borealis", Slug: "borealis"})
	require.NoError(t, err)

	member := &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: a.ID}
	_, err = svc.Get(context.Background(), member, b.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	got, err := svc.Get(context.Background(), member, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
}

func TestDuplicateSlugConflicts(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, nil)
	admin := superAdmin()

	_, err := svc.Create(context.Background(), admin, CreateForm{Name: "Acme", Slug: "acme"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), admin, CreateForm{Name: "Acme Two", Slug: "acme"})
	require.ErrorIs(t, err, shared.ErrConflict)
}
