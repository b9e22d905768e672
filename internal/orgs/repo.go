package orgs

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
)

// Repository persists organizations in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, name, slug, created_at, updated_at`

// Insert persists a new organization. A duplicate slug surfaces as a
// conflict carrying the violated constraint.
func (r *Repository) Insert(ctx context.Context, rec Organization) (Organization, error) {
	rec.ID = uuid.New()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := r.pool.Exec(ctx,
		`INSERT INTO organizations (`+columns+`) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Name, rec.Slug, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return Organization{}, db.MapError(err)
	}
	return rec, nil
}

// FindOne fetches one organization.
func (r *Repository) FindOne(ctx context.Context, id uuid.UUID) (Organization, error) {
	return scanOrg(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM organizations WHERE id = $1`, id))
}

// FindMany returns one page of organizations.
func (r *Repository) FindMany(ctx context.Context, f shared.ListFilters) ([]Organization, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(name ILIKE $"+n+" OR slug ILIKE $"+n+")")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM organizations WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query := `SELECT ` + columns + ` FROM organizations WHERE ` + cond + ` ORDER BY name ASC`
	args = append(args, f.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, f.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var result []Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, o)
	}
	return result, total, rows.Err()
}

// UpdateOne applies a patch and returns the updated row.
func (r *Repository) UpdateOne(ctx context.Context, id uuid.UUID, patch Patch) (Organization, error) {
	sets := []string{}
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Slug != nil {
		set("slug", *patch.Slug)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := `UPDATE organizations SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + columns
	return scanOrg(r.pool.QueryRow(ctx, query, args...))
}

// DeleteOne removes one organization.
func (r *Repository) DeleteOne(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
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

func scanOrg(row rowScanner) (Organization, error) {
	var (
		o                    Organization
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&o.ID, &o.Name, &o.Slug, &createdAt, &updatedAt); err != nil {
		return Organization{}, db.MapError(err)
	}
	if createdAt.Valid {
		o.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		o.UpdatedAt = updatedAt.Time
	}
	return o, nil
}
