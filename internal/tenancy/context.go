package tenancy

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context. It is
// called exactly once per request at the authentication boundary; the
// rest of the system receives the principal as a plain value.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. Nil means
// the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
