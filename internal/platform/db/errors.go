package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/keystone-pm/keystone/internal/shared"
)

// MapError translates pgx failures into the shared error taxonomy.
// Unique and foreign-key violations carry the violated constraint name
// so the boundary can report it.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation, pgerrcode.CheckViolation:
			return fmt.Errorf("%w: %s", shared.ErrConflict, pgErr.ConstraintName)
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return fmt.Errorf("%w: %s", shared.ErrUnavailable, pgErr.Code)
		}
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: database unreachable", shared.ErrUnavailable)
	}
	return err
}
