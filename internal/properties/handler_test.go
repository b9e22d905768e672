package properties

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// memStore keeps properties in a map and honors the scope like the SQL
// store does.
type memStore struct {
	rows map[uuid.UUID]Property
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[uuid.UUID]Property)}
}

func (s *memStore) visible(sc tenancy.Scope, p Property) bool {
	return sc.Unrestricted || p.OrgID == sc.OrgID
}

func (s *memStore) Insert(ctx context.Context, rec Property, org uuid.UUID) (Property, error) {
	rec.ID = uuid.New()
	rec.OrgID = org
	s.rows[rec.ID] = rec
	return rec, nil
}

func (s *memStore) FindOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) (Property, error) {
	p, ok := s.rows[id]
	if !ok || !s.visible(sc, p) {
		return Property{}, shared.ErrNotFound
	}
	return p, nil
}

func (s *memStore) FindMany(ctx context.Context, sc tenancy.Scope, f shared.ListFilters) ([]Property, int, error) {
	var out []Property
	for _, p := range s.rows {
		if s.visible(sc, p) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (s *memStore) UpdateOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID, patch Patch) (Property, error) {
	p, err := s.FindOne(ctx, sc, id)
	if err != nil {
		return Property{}, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	s.rows[id] = p
	return p, nil
}

func (s *memStore) DeleteOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) error {
	if _, err := s.FindOne(ctx, sc, id); err != nil {
		return err
	}
	delete(s.rows, id)
	return nil
}

func newTestRouter(store *memStore, p *tenancy.Principal) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(store, nil, logger, nil))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if p != nil {
				ctx = tenancy.ContextWithPrincipal(ctx, p)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/properties", handler.MountRoutes)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateForcesOwnOrg(t *testing.T) {
	store := newMemStore()
	own := uuid.New()
	router := newTestRouter(store, &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: own})

	rr := doJSON(t, router, http.MethodPost, "/properties", map[string]any{
		"organization_id": uuid.New().String(),
		"name":            "Hillside Flats",
		"address":         "12 Hill Road",
		"kind":            "residential",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, own, created.OrgID)
}

func TestCreateValidation(t *testing.T) {
	router := newTestRouter(newMemStore(), &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: uuid.New()})

	rr := doJSON(t, router, http.MethodPost, "/properties", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUnauthenticatedRequests(t *testing.T) {
	router := newTestRouter(newMemStore(), nil)

	rr := doJSON(t, router, http.MethodGet, "/properties", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCrossTenantGetIsNotFound(t *testing.T) {
	store := newMemStore()
	owner := uuid.New()
	ownerRouter := newTestRouter(store, &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: owner})

	rr := doJSON(t, ownerRouter, http.MethodPost, "/properties", map[string]any{
		"name": "Hillside Flats", "address": "12 Hill Road", "kind": "residential",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	strangerRouter := newTestRouter(store, &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: uuid.New()})
	rr = doJSON(t, strangerRouter, http.MethodGet, "/properties/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, ownerRouter, http.MethodGet, "/properties/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	router := newTestRouter(newMemStore(), &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgUser, OrgID: uuid.New()})

	rr := doJSON(t, router, http.MethodGet, "/properties/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPatchCannotMoveBetweenOrgs(t *testing.T) {
	store := newMemStore()
	own := uuid.New()
	router := newTestRouter(store, &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: own})

	rr := doJSON(t, router, http.MethodPost, "/properties", map[string]any{
		"name": "Hillside Flats", "address": "12 Hill Road", "kind": "residential",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = doJSON(t, router, http.MethodPatch, "/properties/"+created.ID.String(), map[string]any{
		"organization_id": uuid.New().String(),
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodPatch, "/properties/"+created.ID.String(), map[string]any{
		"name": "Hillside Court",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var updated Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "Hillside Court", updated.Name)
}

func TestDelete(t *testing.T) {
	store := newMemStore()
	own := uuid.New()
	router := newTestRouter(store, &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: own})

	rr := doJSON(t, router, http.MethodPost, "/properties", map[string]any{
		"name": "Hillside Flats", "address": "12 Hill Road", "kind": "residential",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created Property
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = doJSON(t, router, http.MethodDelete, "/properties/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/properties/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
