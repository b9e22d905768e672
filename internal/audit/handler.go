package audit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/keystone-pm/keystone/internal/platform/httpx"
	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Handler exposes the audit read API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users/{id}", h.ByUser)
	r.Get("/{entity}/{id}", h.ForEntity)
}

// ByUser serves GET /audit/users/{id}.
func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	entries, err := h.service.LogsByUser(r.Context(), tenancy.PrincipalFromContext(r.Context()), userID)
	if err != nil {
		h.logger.Error("audit by user", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

// ForEntity serves GET /audit/{entity}/{id}.
func (h *Handler) ForEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	entries, err := h.service.LogsForEntity(r.Context(), tenancy.PrincipalFromContext(r.Context()), chi.URLParam(r, "entity"), entityID)
	if err != nil {
		h.logger.Error("audit for entity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": entries})
}
