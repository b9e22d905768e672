package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/keystone-pm/keystone/internal/platform/httpx"
	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
	"github.com/keystone-pm/keystone/jobs"
)

// Handler exposes the billing REST surface.
type Handler struct {
	logger  *slog.Logger
	service *Service
	queue   *asynq.Client
}

// NewHandler constructs a handler. queue may be nil, in which case the
// on-demand overdue scan endpoint reports unavailable.
func NewHandler(logger *slog.Logger, service *Service, queue *asynq.Client) *Handler {
	return &Handler{logger: logger, service: service, queue: queue}
}

// MountRoutes registers billing routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.ListInvoices)
		r.Post("/", h.CreateInvoice)
		r.Get("/{id}", h.GetInvoice)
		r.Patch("/{id}", h.UpdateInvoice)
		r.Delete("/{id}", h.DeleteInvoice)
		r.Get("/{id}/payments", h.ListPayments)
		r.Post("/{id}/payments", h.RecordPayment)
	})
	r.Post("/overdue-scan", h.EnqueueOverdueScan)
}

// ListInvoices serves GET /billing/invoices.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	f := shared.ParseListFilters(r)
	items, total, err := h.service.ListInvoices(r.Context(), tenancy.PrincipalFromContext(r.Context()), f)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.ListEnvelope{Data: items, Pagination: shared.NewPagination(f.Page, f.Limit, total)})
}

// GetInvoice serves GET /billing/invoices/{id}.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	item, err := h.service.GetInvoice(r.Context(), tenancy.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// CreateInvoice serves POST /billing/invoices.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var form CreateInvoiceForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	item, err := h.service.CreateInvoice(r.Context(), tenancy.PrincipalFromContext(r.Context()), form)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

// UpdateInvoice serves PATCH /billing/invoices/{id}.
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var patch InvoicePatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	item, err := h.service.UpdateInvoice(r.Context(), tenancy.PrincipalFromContext(r.Context()), id, patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// DeleteInvoice serves DELETE /billing/invoices/{id}.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.DeleteInvoice(r.Context(), tenancy.PrincipalFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPayments serves GET /billing/invoices/{id}/payments.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	items, err := h.service.ListPayments(r.Context(), tenancy.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// RecordPayment serves POST /billing/invoices/{id}/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var form PaymentForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	pay, err := h.service.RecordPayment(r.Context(), tenancy.PrincipalFromContext(r.Context()), id, form)
	if err != nil {
		h.logger.Error("record payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pay)
}

// EnqueueOverdueScan serves POST /billing/overdue-scan. Super admin
// only; the scan itself runs in the background worker.
func (h *Handler) EnqueueOverdueScan(w http.ResponseWriter, r *http.Request) {
	p := tenancy.PrincipalFromContext(r.Context())
	if !p.SuperAdmin() {
		httpx.RespondError(w, shared.ErrForbidden)
		return
	}
	if h.queue == nil {
		httpx.RespondError(w, shared.ErrUnavailable)
		return
	}
	task, err := jobs.NewOverdueScanTask()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.queue.EnqueueContext(r.Context(), task); err != nil {
		h.logger.Error("enqueue overdue scan", slog.Any("error", err))
		httpx.RespondError(w, shared.ErrUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
