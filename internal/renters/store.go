package renters

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-pm/keystone/internal/platform/db"
	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Store persists renters in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const columns = `id, org_id, full_name, email, phone, created_at, updated_at`

// Insert persists a new renter under org.
func (s *Store) Insert(ctx context.Context, rec Renter, org uuid.UUID) (Renter, error) {
	rec.ID = uuid.New()
	rec.OrgID = org
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO renters (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.OrgID, rec.FullName, rec.Email, rec.Phone, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return Renter{}, db.MapError(err)
	}
	return rec, nil
}

// FindOne fetches one renter within scope.
func (s *Store) FindOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) (Renter, error) {
	query := `SELECT ` + columns + ` FROM renters WHERE id = $1`
	args := []any{id}
	if !sc.Unrestricted {
		query += ` AND org_id = $2`
		args = append(args, sc.OrgID)
	}
	return scanRenter(s.pool.QueryRow(ctx, query, args...))
}

// FindMany returns one page of renters within scope.
func (s *Store) FindMany(ctx context.Context, sc tenancy.Scope, f shared.ListFilters) ([]Renter, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		where = append(where, "org_id = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(full_name ILIKE $"+n+" OR email ILIKE $"+n+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM renters WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query := `SELECT ` + columns + ` FROM renters WHERE ` + cond + ` ORDER BY full_name ASC`
	args = append(args, f.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, f.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var result []Renter
	for rows.Next() {
		rec, err := scanRenter(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, rec)
	}
	return result, total, rows.Err()
}

// UpdateOne applies a patch within scope and returns the updated row.
func (s *Store) UpdateOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID, patch Patch) (Renter, error) {
	sets := []string{}
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if patch.FullName != nil {
		set("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := `UPDATE renters SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		query += ` AND org_id = $` + strconv.Itoa(len(args))
	}
	query += ` RETURNING ` + columns
	return scanRenter(s.pool.QueryRow(ctx, query, args...))
}

// DeleteOne removes one renter within scope.
func (s *Store) DeleteOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) error {
	query := `DELETE FROM renters WHERE id = $1`
	args := []any{id}
	if !sc.Unrestricted {
		query += ` AND org_id = $2`
		args = append(args, sc.OrgID)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRenter(row rowScanner) (Renter, error) {
	var (
		rec                  Renter
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&rec.ID, &rec.OrgID, &rec.FullName, &rec.Email, &rec.Phone, &createdAt, &updatedAt); err != nil {
		return Renter{}, db.MapError(err)
	}
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}
	return rec, nil
}
