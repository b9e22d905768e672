package leases

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

// Store persists leases in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const columns = `id, org_id, unit_id, renter_id, starts_on, ends_on, rent_cents, deposit_cents, status, created_at, updated_at`

// Insert persists a new lease under org.
func (s *Store) Insert(ctx context.Context, rec Lease, org uuid.UUID) (Lease, error) {
	rec.ID = uuid.New()
	rec.OrgID = org
	if rec.Status == "" {
		rec.Status = StatusActive
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leases (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.OrgID, rec.UnitID, rec.RenterID, rec.StartsOn, rec.EndsOn,
		rec.RentCents, rec.DepositCents, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return Lease{}, db.MapError(err)
	}
	return rec, nil
}

// FindOne fetches one lease within scope.
func (s *Store) FindOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) (Lease, error) {
	query := `SELECT ` + columns + ` FROM leases WHERE id = $1`
	args := []any{id}
	if !sc.Unrestricted {
		query += ` AND org_id = $2`
		args = append(args, sc.OrgID)
	}
	return scanLease(s.pool.QueryRow(ctx, query, args...))
}

// FindMany returns one page of leases within scope.
func (s *Store) FindMany(ctx context.Context, sc tenancy.Scope, f shared.ListFilters) ([]Lease, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		where = append(where, "org_id = $"+strconv.Itoa(len(args)))
	}
	if f.UnitID != nil {
		args = append(args, *f.UnitID)
		where = append(where, "unit_id = $"+strconv.Itoa(len(args)))
	}
	if f.RenterID != nil {
		args = append(args, *f.RenterID)
		where = append(where, "renter_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leases WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query := `SELECT ` + columns + ` FROM leases WHERE ` + cond + ` ORDER BY starts_on DESC`
	args = append(args, f.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, f.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var result []Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, l)
	}
	return result, total, rows.Err()
}

// UpdateOne applies a patch within scope and returns the updated row.
func (s *Store) UpdateOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID, patch Patch) (Lease, error) {
	sets := []string{}
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if patch.EndsOn != nil {
		set("ends_on", *patch.EndsOn)
	}
	if patch.RentCents != nil {
		set("rent_cents", *patch.RentCents)
	}
	if patch.DepositCents != nil {
		set("deposit_cents", *patch.DepositCents)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := `UPDATE leases SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		query += ` AND org_id = $` + strconv.Itoa(len(args))
	}
	query += ` RETURNING ` + columns
	return scanLease(s.pool.QueryRow(ctx, query, args...))
}

// DeleteOne removes one lease within scope.
func (s *Store) DeleteOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) error {
	query := `DELETE FROM leases WHERE id = $1`
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

func scanLease(row rowScanner) (Lease, error) {
	var (
		l                    Lease
		startsOn, endsOn     pgtype.Date
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&l.ID, &l.OrgID, &l.UnitID, &l.RenterID, &startsOn, &endsOn,
		&l.RentCents, &l.DepositCents, &l.Status, &createdAt, &updatedAt); err != nil {
		return Lease{}, db.MapError(err)
	}
	if startsOn.Valid {
		l.StartsOn = startsOn.Time
	}
	if endsOn.Valid {
		l.EndsOn = endsOn.Time
	}
	if createdAt.Valid {
		l.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		l.UpdatedAt = updatedAt.Time
	}
	return l, nil
}
