package audit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-pm/keystone/internal/platform/db"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Logger writes records into audit_logs. It implements tenancy.Recorder.
type Logger struct {
	pool *pgxpool.Pool
}

// NewLogger returns a new Logger.
func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool}
}

// Record persists the log entry. Entries are append-only; nothing in
// the system updates or deletes them.
func (l *Logger) Record(ctx context.Context, e tenancy.AuditEntry) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if e.Action == "" || e.Entity == "" || e.EntityID == uuid.Nil {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, org_id, entity, entity_id, user_id, action, meta, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		uuid.New(), nullable(e.OrgID), e.Entity, e.EntityID, nullable(e.UserID), e.Action, metaJSON)
	return db.MapError(err)
}

// nullable maps the zero uuid to NULL: system jobs have no acting user
// and actions on global resources have no owning org.
func nullable(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
