package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/keystone-pm/keystone/internal/platform/httpx"
	"github.com/keystone-pm/keystone/internal/shared"
)

// Handler exposes login and logout endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	tokens  *Tokens
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service *Service, tokens *Tokens) *Handler {
	return &Handler{logger: logger, service: service, tokens: tokens}
}

// MountRoutes registers auth routes on the router. Login carries a
// tighter per-IP rate limit than the global one.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Login serves POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := shared.Validate(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.logger.Warn("login rejected", slog.String("email", form.Email))
		httpx.RespondError(w, err)
		return
	}
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, ExpiresIn: int64(h.tokens.TTL().Seconds())})
}

// Logout serves POST /auth/logout. The presented token is denylisted
// until its natural expiry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	if err := h.tokens.Revoke(r.Context(), raw); err != nil {
		h.logger.Error("revoke token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
