package billing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// memStore covers both the invoice store and the payment store the way
// the SQL-backed Store does.
type memStore struct {
	invoices map[uuid.UUID]Invoice
	payments map[uuid.UUID][]Payment
}

func newMemStore() *memStore {
	return &memStore{
		invoices: make(map[uuid.UUID]Invoice),
		payments: make(map[uuid.UUID][]Payment),
	}
}

func (s *memStore) visible(sc tenancy.Scope, inv Invoice) bool {
	return sc.Unrestricted || inv.OrgID == sc.OrgID
}

func (s *memStore) Insert(ctx context.Context, rec Invoice, org uuid.UUID) (Invoice, error) {
	rec.ID = uuid.New()
	rec.OrgID = org
	if rec.Number == "" {
		rec.Number = "INV-" + strings.ToUpper(rec.ID.String()[:8])
	}
	if rec.Status == "" {
		rec.Status = StatusOpen
	}
	s.invoices[rec.ID] = rec
	return rec, nil
}

func (s *memStore) FindOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) (Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok || !s.visible(sc, inv) {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (s *memStore) FindMany(ctx context.Context, sc tenancy.Scope, f shared.ListFilters) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range s.invoices {
		if s.visible(sc, inv) {
			out = append(out, inv)
		}
	}
	return out, len(out), nil
}

func (s *memStore) UpdateOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID, patch InvoicePatch) (Invoice, error) {
	inv, err := s.FindOne(ctx, sc, id)
	if err != nil {
		return Invoice{}, err
	}
	if patch.AmountCents != nil {
		inv.AmountCents = *patch.AmountCents
	}
	if patch.Status != nil {
		inv.Status = *patch.Status
	}
	s.invoices[id] = inv
	return inv, nil
}

func (s *memStore) DeleteOne(ctx context.Context, sc tenancy.Scope, id uuid.UUID) error {
	if _, err := s.FindOne(ctx, sc, id); err != nil {
		return err
	}
	delete(s.invoices, id)
	return nil
}

func (s *memStore) RecordPayment(ctx context.Context, sc tenancy.Scope, invoiceID uuid.UUID, amountCents int64, method string) (Payment, Invoice, error) {
	inv, err := s.FindOne(ctx, sc, invoiceID)
	if err != nil {
		return Payment{}, Invoice{}, err
	}
	if inv.Status == StatusVoid || inv.Status == StatusPaid {
		return Payment{}, Invoice{}, shared.ErrConflict
	}
	pay := Payment{
		ID:          uuid.New(),
		OrgID:       inv.OrgID,
		InvoiceID:   inv.ID,
		AmountCents: amountCents,
		Method:      method,
		PaidAt:      time.Now().UTC(),
	}
	pay.ReceiptNo = "RCT-" + strings.ToUpper(pay.ID.String()[:8])
	s.payments[inv.ID] = append(s.payments[inv.ID], pay)

	var total int64
	for _, p := range s.payments[inv.ID] {
		total += p.AmountCents
	}
	if total >= inv.AmountCents {
		inv.Status = StatusPaid
		s.invoices[inv.ID] = inv
	}
	return pay, inv, nil
}

func (s *memStore) PaymentsForInvoice(ctx context.Context, sc tenancy.Scope, invoiceID uuid.UUID) ([]Payment, error) {
	var out []Payment
	for _, p := range s.payments[invoiceID] {
		if sc.Unrestricted || p.OrgID == sc.OrgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) MarkOverdue(ctx context.Context, asOf time.Time) ([]OverdueInvoice, error) {
	var flipped []OverdueInvoice
	for id, inv := range s.invoices {
		if inv.Status == StatusOpen && inv.DueOn.Before(asOf) {
			inv.Status = StatusOverdue
			s.invoices[id] = inv
			flipped = append(flipped, OverdueInvoice{ID: id, OrgID: inv.OrgID})
		}
	}
	return flipped, nil
}

type fakeRecorder struct {
	entries []tenancy.AuditEntry
}

func (r *fakeRecorder) Record(ctx context.Context, e tenancy.AuditEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func newTestService(store *memStore, recorder *fakeRecorder) *Service {
	return NewService(store, store, recorder, nil, nil)
}

func principal(org uuid.UUID) *tenancy.Principal {
	return &tenancy.Principal{UserID: uuid.New(), Role: tenancy.RoleOrgAdmin, OrgID: org}
}

func createInvoice(t *testing.T, svc *Service, p *tenancy.Principal, amount int64) Invoice {
	t.Helper()
	inv, err := svc.CreateInvoice(context.Background(), p, CreateInvoiceForm{
		LeaseID:     uuid.New(),
		AmountCents: amount,
		DueOn:       time.Now().UTC().AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	return inv
}

func TestRecordPaymentCoversInvoice(t *testing.T) {
	store := newMemStore()
	recorder := &fakeRecorder{}
	svc := newTestService(store, recorder)

	org := uuid.New()
	p := principal(org)
	inv := createInvoice(t, svc, p, 100_000)

	pay, err := svc.RecordPayment(context.Background(), p, inv.ID, PaymentForm{AmountCents: 40_000, Method: MethodTransfer})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pay.ReceiptNo, "RCT-"))

	got, err := svc.GetInvoice(context.Background(), p, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, got.Status, "partial payment leaves invoice open")

	_, err = svc.RecordPayment(context.Background(), p, inv.ID, PaymentForm{AmountCents: 60_000, Method: MethodCard})
	require.NoError(t, err)

	got, err = svc.GetInvoice(context.Background(), p, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)

	// create + payment + payment audit entries
	var paymentEntries int
	for _, e := range recorder.entries {
		if e.Entity == "payment" {
			paymentEntries++
			assert.Equal(t, tenancy.ActionCreate, e.Action)
			assert.Equal(t, org, e.OrgID)
		}
	}
	assert.Equal(t, 2, paymentEntries)
}

func TestRecordPaymentOnSettledInvoiceConflicts(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeRecorder{})

	p := principal(uuid.New())
	inv := createInvoice(t, svc, p, 50_000)

	_, err := svc.RecordPayment(context.Background(), p, inv.ID, PaymentForm{AmountCents: 50_000, Method: MethodCash})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), p, inv.ID, PaymentForm{AmountCents: 1_000, Method: MethodCash})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestRecordPaymentCrossTenantIsNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeRecorder{})

	owner := principal(uuid.New())
	inv := createInvoice(t, svc, owner, 50_000)

	stranger := principal(uuid.New())
	_, err := svc.RecordPayment(context.Background(), stranger, inv.ID, PaymentForm{AmountCents: 50_000, Method: MethodCard})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListPaymentsResolvesInvoiceFirst(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &fakeRecorder{})

	owner := principal(uuid.New())
	inv := createInvoice(t, svc, owner, 50_000)
	_, err := svc.RecordPayment(context.Background(), owner, inv.ID, PaymentForm{AmountCents: 10_000, Method: MethodCard})
	require.NoError(t, err)

	got, err := svc.ListPayments(context.Background(), owner, inv.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	stranger := principal(uuid.New())
	_, err = svc.ListPayments(context.Background(), stranger, inv.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMarkOverdue(t *testing.T) {
	store := newMemStore()
	recorder := &fakeRecorder{}
	svc := newTestService(store, recorder)

	org := uuid.New()
	p := principal(org)
	inv, err := svc.CreateInvoice(context.Background(), p, CreateInvoiceForm{
		LeaseID:     uuid.New(),
		AmountCents: 80_000,
		DueOn:       time.Now().UTC().AddDate(0, 0, -3),
	})
	require.NoError(t, err)
	createInvoice(t, svc, p, 80_000) // due in the future, untouched

	count, err := svc.MarkOverdue(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := svc.GetInvoice(context.Background(), p, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, got.Status)

	var scanEntries int
	for _, e := range recorder.entries {
		if e.Entity == "invoice" && e.Action == tenancy.ActionUpdate {
			scanEntries++
			assert.Equal(t, uuid.Nil, e.UserID, "system job records no acting user")
			assert.Equal(t, org, e.OrgID, "entry lands in the owning tenant's trail")
			assert.Equal(t, inv.ID, e.EntityID)
		}
	}
	assert.Equal(t, 1, scanEntries)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$1,234,567.89", FormatCents(123456789))
	assert.Equal(t, "$0.05", FormatCents(5))
	assert.Equal(t, "-$12.00", FormatCents(-1200))
}
