package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-pm/keystone/internal/platform/db"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Repository provides PostgreSQL backed user lookup.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByEmail fetches an account by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, org_id, email, name, password_hash, role, is_active, created_at
		 FROM users WHERE email = $1`, email)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u         User
		orgID     pgtype.UUID
		role      string
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &orgID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.IsActive, &createdAt); err != nil {
		return nil, db.MapError(err)
	}
	if orgID.Valid {
		u.OrgID = uuid.UUID(orgID.Bytes)
	}
	u.Role = tenancy.Role(role)
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time
	}
	return &u, nil
}
