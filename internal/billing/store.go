package billing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-pm/keystone/internal/platform/db"
	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Store persists invoices and payments in PostgreSQL. The invoice side
// implements tenancy.Store[Invoice, InvoicePatch].
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const invoiceColumns = `id, org_id, lease_id, number, amount_cents, due_on, status, created_at, updated_at`
const paymentColumns = `id, org_id, invoice_id, amount_cents, method, receipt_no, paid_at`

// Insert persists a new invoice under org.
func (s *Store) Insert(ctx context.Context, rec Invoice, org uuid.UUID) (Invoice, error) {
	rec.ID = uuid.New()
	rec.OrgID = org
	if rec.Number == "" {
		rec.Number = "INV-" + strings.ToUpper(rec.ID.String()[:8])
	}
	if rec.Status == "" {
		rec.Status = StatusOpen
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.OrgID, rec.LeaseID, rec.Number, rec.AmountCents, rec.DueOn, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return Invoice{}, db.MapError(err)
	}
	return rec, nil
}

// FindOne fetches one invoice within scope.
func (s *Store) FindOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) (Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	args := []any{id}
	if !sc.Unrestricted {
		query += ` AND org_id = $2`
		args = append(args, sc.OrgID)
	}
	return scanInvoice(s.pool.QueryRow(ctx, query, args...))
}

// FindMany returns one page of invoices within scope.
func (s *Store) FindMany(ctx context.Context, sc tenancy.Scope, f shared.ListFilters) ([]Invoice, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		where = append(where, "org_id = $"+strconv.Itoa(len(args)))
	}
	if f.LeaseID != nil {
		args = append(args, *f.LeaseID)
		where = append(where, "lease_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, "number ILIKE $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ` + cond + ` ORDER BY due_on DESC`
	args = append(args, f.Limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, f.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, inv)
	}
	return result, total, rows.Err()
}

// UpdateOne applies a patch within scope and returns the updated row.
func (s *Store) UpdateOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID, patch InvoicePatch) (Invoice, error) {
	sets := []string{}
	args := []any{}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if patch.AmountCents != nil {
		set("amount_cents", *patch.AmountCents)
	}
	if patch.DueOn != nil {
		set("due_on", *patch.DueOn)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := `UPDATE invoices SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))
	if !sc.Unrestricted {
		args = append(args, sc.OrgID)
		query += ` AND org_id = $` + strconv.Itoa(len(args))
	}
	query += ` RETURNING ` + invoiceColumns
	return scanInvoice(s.pool.QueryRow(ctx, query, args...))
}

// DeleteOne removes one invoice within scope.
func (s *Store) DeleteOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) error {
	query := `DELETE FROM invoices WHERE id = $1`
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

// RecordPayment inserts a payment and, when the invoice is fully
// covered, flips it to paid. Both statements run in one transaction so
// a crash cannot leave a paid invoice without its payment row.
func (s *Store) RecordPayment(ctx context.Context, sc tenancy.Scope, invoiceID uuid.UUID, amountCents int64, method string) (Payment, Invoice, error) {
	var (
		pay Payment
		inv Invoice
	)
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
		args := []any{invoiceID}
		if !sc.Unrestricted {
			query += ` AND org_id = $2`
			args = append(args, sc.OrgID)
		}
		query += ` FOR UPDATE`
		var err error
		inv, err = scanInvoice(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return err
		}
		if inv.Status == StatusVoid || inv.Status == StatusPaid {
			return shared.ErrConflict
		}

		pay = Payment{
			ID:          uuid.New(),
			OrgID:       inv.OrgID,
			InvoiceID:   inv.ID,
			AmountCents: amountCents,
			Method:      method,
			PaidAt:      time.Now().UTC(),
		}
		pay.ReceiptNo = "RCT-" + strings.ToUpper(pay.ID.String()[:8])
		if _, err := tx.Exec(ctx,
			`INSERT INTO payments (`+paymentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			pay.ID, pay.OrgID, pay.InvoiceID, pay.AmountCents, pay.Method, pay.ReceiptNo, pay.PaidAt); err != nil {
			return db.MapError(err)
		}

		var paidTotal int64
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE invoice_id = $1`, inv.ID).Scan(&paidTotal); err != nil {
			return db.MapError(err)
		}
		if paidTotal >= inv.AmountCents {
			inv, err = scanInvoice(tx.QueryRow(ctx,
				`UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3 RETURNING `+invoiceColumns,
				StatusPaid, time.Now().UTC(), inv.ID))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Payment{}, Invoice{}, err
	}
	return pay, inv, nil
}

// PaymentsForInvoice returns payments for one invoice, newest first.
// Callers must have resolved invoice visibility first.
func (s *Store) PaymentsForInvoice(ctx context.Context, sc tenancy.Scope, invoiceID uuid.UUID) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = $1`
	args := []any{invoiceID}
	if !sc.Unrestricted {
		query += ` AND org_id = $2`
		args = append(args, sc.OrgID)
	}
	query += ` ORDER BY paid_at DESC`
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		var (
			p      Payment
			paidAt pgtype.Timestamptz
		)
		if err := rows.Scan(&p.ID, &p.OrgID, &p.InvoiceID, &p.AmountCents, &p.Method, &p.ReceiptNo, &paidAt); err != nil {
			return nil, db.MapError(err)
		}
		if paidAt.Valid {
			p.PaidAt = paidAt.Time
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// MarkOverdue flips open invoices past their due date to overdue and
// returns the affected invoices with their owning organizations.
func (s *Store) MarkOverdue(ctx context.Context, asOf time.Time) ([]OverdueInvoice, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE invoices SET status = $1, updated_at = $2 WHERE status = $3 AND due_on < $4 RETURNING id, org_id`,
		StatusOverdue, time.Now().UTC(), StatusOpen, asOf)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var flipped []OverdueInvoice
	for rows.Next() {
		var rec OverdueInvoice
		if err := rows.Scan(&rec.ID, &rec.OrgID); err != nil {
			return nil, db.MapError(err)
		}
		flipped = append(flipped, rec)
	}
	return flipped, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (Invoice, error) {
	var (
		inv                  Invoice
		dueOn                pgtype.Date
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&inv.ID, &inv.OrgID, &inv.LeaseID, &inv.Number, &inv.AmountCents, &dueOn, &inv.Status, &createdAt, &updatedAt); err != nil {
		return Invoice{}, db.MapError(err)
	}
	if dueOn.Valid {
		inv.DueOn = dueOn.Time
	}
	if createdAt.Valid {
		inv.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		inv.UpdatedAt = updatedAt.Time
	}
	return inv, nil
}
