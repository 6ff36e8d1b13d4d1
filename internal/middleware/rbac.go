package middleware

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/domain/identity"
)

// RequireRole returns middleware that restricts access to identities holding
// one of the given roles. sys_admin always passes.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	allowed := make(map[identity.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idc := IdentityFromContext(r.Context())
			if idc == nil {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			if !idc.SysAdmin() && !allowed[idc.Role] {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
