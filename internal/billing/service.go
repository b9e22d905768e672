package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// PaymentStore is the payment-side persistence the service drives in
// addition to the invoice mediator.
type PaymentStore interface {
	RecordPayment(ctx context.Context, sc tenancy.Scope, invoiceID uuid.UUID, amountCents int64, method string) (Payment, Invoice, error)
	PaymentsForInvoice(ctx context.Context, sc tenancy.Scope, invoiceID uuid.UUID) ([]Payment, error)
	MarkOverdue(ctx context.Context, asOf time.Time) ([]OverdueInvoice, error)
}

// Service handles invoices and payments.
type Service struct {
	med      *tenancy.Mediator[Invoice, InvoicePatch]
	payments PaymentStore
	recorder tenancy.Recorder
	logger   *slog.Logger
	onGap    func()
}

// NewService builds the service. store is typically *Store, which
// covers both interfaces.
func NewService(store tenancy.Store[Invoice, InvoicePatch], payments PaymentStore, recorder tenancy.Recorder, logger *slog.Logger, onAuditGap func()) *Service {
	return &Service{
		med:      tenancy.NewMediator("invoice", store, recorder, logger, onAuditGap),
		payments: payments,
		recorder: recorder,
		logger:   logger,
		onGap:    onAuditGap,
	}
}

// CreateInvoice validates the form and persists a new invoice.
func (s *Service) CreateInvoice(ctx context.Context, p *tenancy.Principal, form CreateInvoiceForm) (Invoice, error) {
	if err := shared.Validate(form); err != nil {
		return Invoice{}, err
	}
	rec := Invoice{
		LeaseID:     form.LeaseID,
		AmountCents: form.AmountCents,
		DueOn:       form.DueOn,
		Status:      StatusOpen,
	}
	return s.med.Create(ctx, p, rec, form.OrgID)
}

// GetInvoice fetches one invoice.
func (s *Service) GetInvoice(ctx context.Context, p *tenancy.Principal, id uuid.UUID) (Invoice, error) {
	return s.med.Get(ctx, p, id)
}

// ListInvoices returns one page of invoices.
func (s *Service) ListInvoices(ctx context.Context, p *tenancy.Principal, f shared.ListFilters) ([]Invoice, int, error) {
	return s.med.List(ctx, p, f)
}

// UpdateInvoice applies a partial update.
func (s *Service) UpdateInvoice(ctx context.Context, p *tenancy.Principal, id uuid.UUID, patch InvoicePatch) (Invoice, error) {
	if err := shared.Validate(patch); err != nil {
		return Invoice{}, err
	}
	return s.med.Update(ctx, p, id, patch)
}

// DeleteInvoice removes one invoice.
func (s *Service) DeleteInvoice(ctx context.Context, p *tenancy.Principal, id uuid.UUID) error {
	return s.med.Delete(ctx, p, id)
}

// RecordPayment records money received against an invoice. An invoice
// belonging to another tenant behaves as absent; an already paid or
// void invoice is a conflict.
func (s *Service) RecordPayment(ctx context.Context, p *tenancy.Principal, invoiceID uuid.UUID, form PaymentForm) (Payment, error) {
	if err := shared.Validate(form); err != nil {
		return Payment{}, err
	}
	sc, err := tenancy.Decide(p, tenancy.Operation{Kind: tenancy.OpUpdate})
	if err != nil {
		return Payment{}, err
	}
	pay, inv, err := s.payments.RecordPayment(ctx, sc, invoiceID, form.AmountCents, form.Method)
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, p.UserID, tenancy.ActionCreate, "payment", pay.ID, pay.OrgID, map[string]any{
		"receipt_no": pay.ReceiptNo,
		"amount":     FormatCents(pay.AmountCents),
		"invoice":    inv.Number,
	})
	return pay, nil
}

// ListPayments returns payments for one invoice, newest first. Invoice
// visibility is resolved first so a cross-tenant invoice is NotFound
// rather than an empty listing.
func (s *Service) ListPayments(ctx context.Context, p *tenancy.Principal, invoiceID uuid.UUID) ([]Payment, error) {
	if _, err := s.med.Get(ctx, p, invoiceID); err != nil {
		return nil, err
	}
	sc, err := tenancy.Decide(p, tenancy.Operation{Kind: tenancy.OpReadMany})
	if err != nil {
		return nil, err
	}
	return s.payments.PaymentsForInvoice(ctx, sc, invoiceID)
}

// MarkOverdue flips open invoices past their due date to overdue. It
// runs under the system scope from the background worker; each audit
// entry is recorded under the invoice's organization with no acting
// user, so the owning tenant sees the system update in the trail.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	flipped, err := s.payments.MarkOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}
	for _, inv := range flipped {
		s.record(ctx, uuid.Nil, tenancy.ActionUpdate, "invoice", inv.ID, inv.OrgID, map[string]any{"source": "overdue_scan"})
	}
	return len(flipped), nil
}

func (s *Service) record(ctx context.Context, userID uuid.UUID, action, entity string, entityID, orgID uuid.UUID, meta map[string]any) {
	if s.recorder == nil {
		return
	}
	entry := tenancy.AuditEntry{
		Entity:   entity,
		EntityID: entityID,
		UserID:   userID,
		OrgID:    orgID,
		Action:   action,
		Meta:     meta,
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		if s.logger != nil {
			s.logger.Error("audit append failed after mutation",
				slog.String("entity", entity),
				slog.String("entity_id", entityID.String()),
				slog.String("action", action),
				slog.Any("error", err))
		}
		if s.onGap != nil {
			s.onGap()
		}
	}
}
