package audit

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-pm/keystone/internal/platform/db"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// PGRepository reads audit_logs from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectColumns = `
	SELECT a.id, a.org_id, a.entity, a.entity_id, a.user_id, COALESCE(u.email, ''), a.action, a.meta, a.created_at
	FROM audit_logs a
	LEFT JOIN users u ON u.id = a.user_id`

// LogsByUser returns entries recorded by one user, newest first.
func (r *PGRepository) LogsByUser(ctx context.Context, sc tenancy.Scope, userID uuid.UUID, limit int) ([]Entry, error) {
	query := selectColumns + ` WHERE a.user_id = $1`
	args := []any{userID}
	if !sc.Unrestricted {
		query += ` AND a.org_id = $2`
		args = append(args, sc.OrgID)
	}
	query += ` ORDER BY a.created_at DESC LIMIT ` + itoa(len(args)+1)
	args = append(args, limit)
	return r.query(ctx, query, args...)
}

// LogsForEntity returns entries touching one entity, newest first.
func (r *PGRepository) LogsForEntity(ctx context.Context, sc tenancy.Scope, entity string, entityID uuid.UUID, limit int) ([]Entry, error) {
	query := selectColumns + ` WHERE a.entity = $1 AND a.entity_id = $2`
	args := []any{entity, entityID}
	if !sc.Unrestricted {
		query += ` AND a.org_id = $3`
		args = append(args, sc.OrgID)
	}
	query += ` ORDER BY a.created_at DESC LIMIT ` + itoa(len(args)+1)
	args = append(args, limit)
	return r.query(ctx, query, args...)
}

func (r *PGRepository) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e             Entry
		orgID, userID pgtype.UUID
		metaJSON      []byte
		createdAt     pgtype.Timestamptz
	)
	if err := row.Scan(&e.ID, &orgID, &e.Entity, &e.EntityID, &userID, &e.ActorEmail, &e.Action, &metaJSON, &createdAt); err != nil {
		return Entry{}, db.MapError(err)
	}
	if orgID.Valid {
		e.OrgID = uuid.UUID(orgID.Bytes)
	}
	if userID.Valid {
		e.UserID = uuid.UUID(userID.Bytes)
	}
	if createdAt.Valid {
		e.CreatedAt = createdAt.Time
	}
	if len(metaJSON) > 0 {
		_ = json.Unmarshal(metaJSON, &e.Meta)
	}
	return e, nil
}

func itoa(n int) string {
	return "$" + strconv.Itoa(n)
}
