package middleware

import (
	"context"
	"net/http"

	"github.com/atelierhq/atelier/internal/logger"
)

// DefaultTenantID is used for globally-owned rows (users, contacts) and as
// the single-tenant fallback when no X-Tenant-ID header is set.
const DefaultTenantID = "00000000-0000-0000-0000-000000000000"

const headerTenantID = "X-Tenant-ID"

type tenantCtxKey struct{}

// TenantID is middleware that extracts the requested active tenant from the
// X-Tenant-ID header and stores it in the request context. The Auth
// middleware later verifies the acting user actually belongs to it.
func TenantID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := r.Header.Get(headerTenantID)
		if tid == "" {
			tid = DefaultTenantID
		}
		ctx := WithTenantID(r.Context(), tid)
		ctx = logger.WithTenantID(ctx, tid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithTenantID returns a context carrying the active tenant ID.
func WithTenantID(ctx context.Context, tid string) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tid)
}

// TenantIDFromContext returns the tenant ID stored in ctx, or
// DefaultTenantID if absent. Every tenant-scoped store query keys off this.
func TenantIDFromContext(ctx context.Context) string {
	if tid, ok := ctx.Value(tenantCtxKey{}).(string); ok {
		return tid
	}
	return DefaultTenantID
}
