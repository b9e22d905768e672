package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/keystone-pm/keystone/internal/platform/httpx"
	"github.com/keystone-pm/keystone/internal/shared"
	"github.com/keystone-pm/keystone/internal/tenancy"
)

// Middleware resolves the bearer credential once at the boundary and
// stores the principal in the request context. Requests without a valid
// credential are rejected before reaching any handler.
func Middleware(tokens *Tokens, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			principal, err := tokens.Resolve(r.Context(), raw)
			if err != nil {
				if logger != nil {
					logger.Warn("resolve principal", slog.String("path", r.URL.Path), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			ctx := tenancy.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
