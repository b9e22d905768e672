package billing

import (
	"time"

	"github.com/google/uuid"
)

// Invoice statuses.
const (
	StatusOpen    = "open"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
	StatusVoid    = "void"
)

// Payment methods.
const (
	MethodCard     = "card"
	MethodTransfer = "transfer"
	MethodCash     = "cash"
)

// Invoice bills a lease for a period.
type Invoice struct {
	ID          uuid.UUID `json:"id"`
	OrgID       uuid.UUID `json:"organization_id"`
	LeaseID     uuid.UUID `json:"lease_id"`
	Number      string    `json:"number"`
	AmountCents int64     `json:"amount_cents"`
	DueOn       time.Time `json:"due_on"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResourceID implements tenancy.Resource.
func (i Invoice) ResourceID() uuid.UUID { return i.ID }

// OwnerOrg implements tenancy.Resource.
func (i Invoice) OwnerOrg() uuid.UUID { return i.OrgID }

// Payment records money received against an invoice. The receipt
// number doubles as the receipt: there is no separate receipt table.
type Payment struct {
	ID          uuid.UUID `json:"id"`
	OrgID       uuid.UUID `json:"organization_id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method"`
	ReceiptNo   string    `json:"receipt_no"`
	PaidAt      time.Time `json:"paid_at"`
}

// OverdueInvoice identifies an invoice flipped by the overdue scan
// together with its owning organization, so the audit entry lands in
// the owner's trail.
type OverdueInvoice struct {
	ID    uuid.UUID
	OrgID uuid.UUID
}

// CreateInvoiceForm is the request body for creating an invoice.
type CreateInvoiceForm struct {
	OrgID       uuid.UUID `json:"organization_id"`
	LeaseID     uuid.UUID `json:"lease_id" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"gt=0"`
	DueOn       time.Time `json:"due_on" validate:"required"`
}

// InvoicePatch is a partial invoice update.
type InvoicePatch struct {
	OrgID       *uuid.UUID `json:"organization_id"`
	AmountCents *int64     `json:"amount_cents" validate:"omitempty,gt=0"`
	DueOn       *time.Time `json:"due_on"`
	Status      *string    `json:"status" validate:"omitempty,oneof=open paid overdue void"`
}

// RequestedOrg implements tenancy.Reparenting.
func (p InvoicePatch) RequestedOrg() (uuid.UUID, bool) {
	if p.OrgID == nil {
		return uuid.Nil, false
	}
	return *p.OrgID, true
}

// PaymentForm is the request body for recording a payment.
type PaymentForm struct {
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	Method      string `json:"method" validate:"required,oneof=card transfer cash"`
}
