package leases

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/platform/httpx"
	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Handler exposes the lease REST surface.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers lease routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List serves GET /leases. Supports unit_id, renter_id and status filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f := shared.ParseListFilters(r)
	items, total, err := h.service.List(r.Context(), tenancy.PrincipalFromContext(r.Context()), f)
	if err != nil {
		h.logger.Error("list leases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.ListEnvelope{Data: items, Pagination: shared.NewPagination(f.Page, f.Limit, total)})
}

// Get serves GET /leases/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	item, err := h.service.Get(r.Context(), tenancy.PrincipalFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// Create serves POST /leases.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var form CreateForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	item, err := h.service.Create(r.Context(), tenancy.PrincipalFromContext(r.Context()), form)
	if err != nil {
		h.logger.Error("create lease", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

// Update serves PATCH /leases/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	item, err := h.service.Update(r.Context(), tenancy.PrincipalFromContext(r.Context()), id, patch)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// Delete serves DELETE /leases/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), tenancy.PrincipalFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
