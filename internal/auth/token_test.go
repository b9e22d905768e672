package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

func testUser(role tenancy.Role, org uuid.UUID) *User {
	return &User{ID: uuid.New(), OrgID: org, Email: "pat@example.com", Role: role}
}

func TestIssueAndResolveRoundtrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour, nil)
	org := uuid.New()
	u := testUser(tenancy.RoleOrgAdmin, org)

	raw, err := tokens.Issue(u)
	require.NoError(t, err)

	p, err := tokens.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, tenancy.RoleOrgAdmin, p.Role)
	assert.Equal(t, org, p.OrgID)
}

func TestResolveSuperAdminWithoutOrg(t *testing.T) {
	tokens := NewTokens("secret", time.Hour, nil)
	u := testUser(tenancy.RoleSuperAdmin, uuid.Nil)

	raw, err := tokens.Issue(u)
	require.NoError(t, err)

	p, err := tokens.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, p.OrgID)
	assert.True(t, p.SuperAdmin())
}

func TestResolveRejectsGarbage(t *testing.T) {
	tokens := NewTokens("secret", time.Hour, nil)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := tokens.Resolve(context.Background(), raw)
		require.ErrorIs(t, err, shared.ErrUnauthenticated)
	}
}

func TestResolveRejectsWrongSecret(t *testing.T) {
	issuer := NewTokens("secret-one", time.Hour, nil)
	verifier := NewTokens("secret-two", time.Hour, nil)

	raw, err := issuer.Issue(testUser(tenancy.RoleOrgUser, uuid.New()))
	require.NoError(t, err)

	_, err = verifier.Resolve(context.Background(), raw)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	tokens := NewTokens("secret", time.Hour, nil)
	issued := time.Now().UTC()
	tokens.now = func() time.Time { return issued }

	raw, err := tokens.Issue(testUser(tenancy.RoleOrgUser, uuid.New()))
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = tokens.Resolve(context.Background(), raw)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestRevokedTokenStopsResolving(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := NewTokens("secret", time.Hour, NewRedisDenylist(client))
	raw, err := tokens.Issue(testUser(tenancy.RoleOrgAdmin, uuid.New()))
	require.NoError(t, err)

	_, err = tokens.Resolve(context.Background(), raw)
	require.NoError(t, err)

	require.NoError(t, tokens.Revoke(context.Background(), raw))

	_, err = tokens.Resolve(context.Background(), raw)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestDenylistOutageIsUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens := NewTokens("secret", time.Hour, NewRedisDenylist(client))
	raw, err := tokens.Issue(testUser(tenancy.RoleOrgUser, uuid.New()))
	require.NoError(t, err)

	srv.Close()

	_, err = tokens.Resolve(context.Background(), raw)
	require.ErrorIs(t, err, shared.ErrUnavailable)
}
