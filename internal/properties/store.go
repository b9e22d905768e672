package properties

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

// Store persists properties in PostgreSQL. It implements
// tenancy.Store[Property, Patch]: every statement carries the org
// predicate derived from the scope.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const columns = `id, org_id, name, address, city, kind, created_at, updated_at`

// Insert persists a new property under org.
func (s *Store) Insert(ctx context.Context, rec Property, org uuid.UUID) (Property, error) {
	rec.ID = uuid.New()
	rec.OrgID = org
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO properties (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.OrgID, rec.Name, rec.Address, rec.City, rec.Kind, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return Property{}, db.MapError(err)
	}
	return rec, nil
}

// FindOne fetches one property within scope.
func (s *Store) FindOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) (Property, error) {
	query := `SELECT ` + columns + ` FROM properties WHERE id = $1`
	args := []any{id}
	if !sc.Unrestricted {
		query += ` AND org_id = $2`
		args = append(args, sc.OrgID)
	}
	return scanProperty(s.pool.QueryRow(ctx, query, args...))
}

// FindMany returns one page of properties within scope.
func (s *Store) FindMany(ctx context.Context, sc tenancy.Scope, f shared.ListFilters) ([]Property, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		where = append(where, "org_id = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(name ILIKE $"+n+" OR address ILIKE $"+n+" OR city ILIKE $"+n+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query := `SELECT ` + columns + ` FROM properties WHERE ` + cond + ` ORDER BY ` + sortOrder(f.SortBy, f.SortDir)
	args = append(args, f.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, f.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var result []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

// UpdateOne applies a patch within scope and returns the updated row.
func (s *Store) UpdateOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID, patch Patch) (Property, error) {
	sets := []string{}
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.City != nil {
		set("city", *patch.City)
	}
	if patch.Kind != nil {
		set("kind", *patch.Kind)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := `UPDATE properties SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		query += ` AND org_id = $` + strconv.Itoa(len(args))
	}
	query += ` RETURNING ` + columns
	return scanProperty(s.pool.QueryRow(ctx, query, args...))
}

// DeleteOne removes one property within scope.
func (s *Store) DeleteOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) error {
	query := `DELETE FROM properties WHERE id = $1`
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

func scanProperty(row rowScanner) (Property, error) {
	var (
		p                    Property
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.Address, &p.City, &p.Kind, &createdAt, &updatedAt); err != nil {
		return Property{}, db.MapError(err)
	}
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return p, nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	case "city":
		return "city " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "created_at DESC"
	}
}
