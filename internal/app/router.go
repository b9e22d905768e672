package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/keystone-pm/keystone/internal/audit"
	"github.com/keystone-pm/keystone/internal/auth"
	"github.com/keystone-pm/keystone/internal/billing"
	"github.com/keystone-pm/keystone/internal/leases"
	"github.com/keystone-pm/keystone/internal/observability"
	"github.com/keystone-pm/keystone/internal/orgs"
	"github.com/keystone-pm/keystone/internal/properties"
	"github.com/keystone-pm/keystone/internal/renters"
	"github.com/keystone-pm/keystone/internal/units"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Tokens *auth.Tokens

	AuthHandler       *auth.Handler
	OrgsHandler       *orgs.Handler
	PropertiesHandler *properties.Handler
	UnitsHandler      *units.Handler
	RentersHandler    *renters.Handler
	LeasesHandler     *leases.Handler
	BillingHandler    *billing.Handler
	AuditHandler      *audit.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(params.Tokens, params.Logger))

		r.Route("/orgs", params.OrgsHandler.MountRoutes)
		r.Route("/properties", params.PropertiesHandler.MountRoutes)
		r.Route("/units", params.UnitsHandler.MountRoutes)
		r.Route("/renters", params.RentersHandler.MountRoutes)
		r.Route("/leases", params.LeasesHandler.MountRoutes)
		r.Route("/billing", params.BillingHandler.MountRoutes)
		r.Route("/audit", params.AuditHandler.MountRoutes)
	})

	return r
}
