package middleware

import (
	"context"
	"net/http"

	"github.com/atelierhq/atelier/internal/domain/identity"
)

type identityCtxKey struct{}

// Authenticator resolves an API key and requested tenant into an acting
// identity. Implemented by service.IdentityService.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey, tenantID string) (*identity.Context, error)
}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/healthz": true,
}

// Auth returns middleware that validates the X-API-Key credential and
// injects the resolved identity context. The effective role always comes
// from the resolver behind the Authenticator, never from anything the
// client sent. When authEnabled is false a sys_admin context is injected,
// for local development only.
func Auth(auth Authenticator, authEnabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authEnabled {
				idc := &identity.Context{
					User:     identity.User{ID: "dev-admin", Email: "admin@localhost", Name: "Admin"},
					Role:     identity.RoleSysAdmin,
					TenantID: TenantIDFromContext(r.Context()),
				}
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), idc)))
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			idc, err := auth.Authenticate(r.Context(), apiKey, TenantIDFromContext(r.Context()))
			if err != nil {
				http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			ctx := WithIdentity(r.Context(), idc)
			ctx = WithTenantID(ctx, idc.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a context carrying the acting identity.
func WithIdentity(ctx context.Context, idc *identity.Context) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, idc)
}

// IdentityFromContext returns the acting identity stored in ctx, or nil.
func IdentityFromContext(ctx context.Context) *identity.Context {
	idc, _ := ctx.Value(identityCtxKey{}).(*identity.Context)
	return idc
}
