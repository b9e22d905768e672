package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Claims are the verified claims embedded in an access token. Role and
// org are the authoritative snapshot of the user's membership as of
// issuance; they are not re-checked against the store per request.
type Claims struct {
	Role string `json:"role"`
	Org  string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// Denylist tracks revoked token ids until their natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Tokens issues and resolves HMAC-signed bearer tokens.
type Tokens struct {
	secret   []byte
	ttl      time.Duration
	denylist Denylist
	now      func() time.Time
}

// NewTokens constructs the token codec. denylist may be nil, in which
// case logout-based revocation is disabled.
func NewTokens(secret string, ttl time.Duration, denylist Denylist) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, denylist: denylist, now: time.Now}
}

// Issue signs a token for the user.
func (t *Tokens) Issue(u *User) (string, error) {
	now := t.now().UTC()
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	if u.OrgID != uuid.Nil {
		claims.Org = u.OrgID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// TTL exposes the configured token lifetime.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Resolve verifies a raw bearer credential and returns the principal it
// carries. Missing, malformed, expired and revoked tokens all resolve
// to shared.ErrUnauthenticated; only a denylist outage surfaces as
// shared.ErrUnavailable.
func (t *Tokens) Resolve(ctx context.Context, raw string) (*tenancy.Principal, error) {
	if raw == "" {
		return nil, shared.ErrUnauthenticated
	}
	claims, err := t.parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnauthenticated, err.Error())
	}
	if t.denylist != nil && claims.ID != "" {
		revoked, err := t.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: denylist check: %s", shared.ErrUnavailable, err.Error())
		}
		if revoked {
			return nil, shared.ErrUnauthenticated
		}
	}
	return principalFromClaims(claims)
}

// Revoke denylists a raw token until it would have expired naturally.
func (t *Tokens) Revoke(ctx context.Context, raw string) error {
	if t.denylist == nil {
		return nil
	}
	claims, err := t.parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrUnauthenticated, err.Error())
	}
	ttl := t.ttl
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return t.denylist.Revoke(ctx, claims.ID, ttl)
}

func (t *Tokens) parse(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func principalFromClaims(claims *Claims) (*tenancy.Principal, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", shared.ErrUnauthenticated)
	}
	role := tenancy.Role(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", shared.ErrUnauthenticated)
	}
	p := &tenancy.Principal{UserID: userID, Role: role}
	if claims.Org != "" {
		orgID, err := uuid.Parse(claims.Org)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed org claim", shared.ErrUnauthenticated)
		}
		p.OrgID = orgID
	}
	return p, nil
}
