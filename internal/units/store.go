package units

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

// Store persists units in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const columns = `id, org_id, property_id, label, bedrooms, rent_cents, status, created_at, updated_at`

// Insert persists a new unit under org.
func (s *Store) Insert(ctx context.Context, rec Unit, org uuid.UUID) (Unit, error) {
	rec.ID = uuid.New()
	rec.OrgID = org
	if rec.Status == "" {
		rec.Status = StatusVacant
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO units (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.OrgID, rec.PropertyID, rec.Label, rec.Bedrooms, rec.RentCents, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return Unit{}, db.MapError(err)
	}
	return rec, nil
}

// FindOne fetches one unit within scope.
func (s *Store) FindOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) (Unit, error) {
	query := `SELECT ` + columns + ` FROM units WHERE id = $1`
	args := []any{id}
	if !sc.Unrestricted {
		query += ` AND org_id = $2`
		args = append(args, sc.OrgID)
	}
	return scanUnit(s.pool.QueryRow(ctx, query, args...))
}

// FindMany returns one page of units within scope.
func (s *Store) FindMany(ctx context.Context, sc tenancy.Scope, f shared.ListFilters) ([]Unit, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		where = append(where, "org_id = $"+strconv.Itoa(len(args)))
	}
	if f.PropertyID != nil {
		args = append(args, *f.PropertyID)
		where = append(where, "property_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, "label ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM units WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query := `SELECT ` + columns + ` FROM units WHERE ` + cond + ` ORDER BY label ASC`
	args = append(args, f.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, f.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var result []Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, u)
	}
	return result, total, rows.Err()
}

// UpdateOne applies a patch within scope and returns the updated row.
func (s *Store) UpdateOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID, patch Patch) (Unit, error) {
	sets := []string{}
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Label != nil {
		set("label", *patch.Label)
	}
	if patch.Bedrooms != nil {
		set("bedrooms", *patch.Bedrooms)
	}
	if patch.RentCents != nil {
		set("rent_cents", *patch.RentCents)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := `UPDATE units SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		query += ` AND org_id = $` + strconv.Itoa(len(args))
	}
	query += ` RETURNING ` + columns
	return scanUnit(s.pool.QueryRow(ctx, query, args...))
}

// DeleteOne removes one unit within scope.
func (s *Store) DeleteOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) error {
	query := `DELETE FROM units WHERE id = $1`
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

func scanUnit(row rowScanner) (Unit, error) {
	var (
		u                    Unit
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &u.OrgID, &u.PropertyID, &u.Label, &u.Bedrooms, &u.RentCents, &u.Status, &createdAt, &updatedAt); err != nil {
		return Unit{}, db.MapError(err)
	}
	if createdAt.Valid {
		u.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		u.UpdatedAt = updatedAt.Time
	}
	return u, nil
}
