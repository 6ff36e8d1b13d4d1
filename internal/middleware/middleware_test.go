package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/domain/identity"
)

func TestTenantID_HeaderWins(t *testing.T) {
	var got string
	h := TenantID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = TenantIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("X-Tenant-ID", "t-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "t-42" {
		t.Fatalf("tenant ID = %q, want t-42", got)
	}
}

func TestTenantID_DefaultsWhenAbsent(t *testing.T) {
	var got string
	h := TenantID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = TenantIDFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != DefaultTenantID {
		t.Fatalf("tenant ID = %q, want default", got)
	}
}

type stubAuthenticator struct {
	idc *identity.Context
	err error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, _, _ string) (*identity.Context, error) {
	return s.idc, s.err
}

func TestAuth_MissingKeyRejected(t *testing.T) {
	h := Auth(&stubAuthenticator{}, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_InvalidKeyRejected(t *testing.T) {
	auth := &stubAuthenticator{err: errors.New("invalid credentials")}
	h := Auth(auth, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("X-API-Key", "atl_deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_ResolvedIdentityRewritesTenant(t *testing.T) {
	auth := &stubAuthenticator{idc: &identity.Context{
		User:     identity.User{ID: "u1"},
		Role:     identity.RoleOrgUser,
		TenantID: "t-resolved",
	}}

	var gotIdentity *identity.Context
	var gotTenant string
	h := Auth(auth, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity = IdentityFromContext(r.Context())
		gotTenant = TenantIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("X-API-Key", "atl_deadbeef")
	req = req.WithContext(WithTenantID(req.Context(), "t-claimed"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotIdentity == nil || gotIdentity.User.ID != "u1" {
		t.Fatalf("identity = %+v, want user u1", gotIdentity)
	}
	if gotTenant != "t-resolved" {
		t.Fatalf("tenant = %q, want the resolver's tenant", gotTenant)
	}
}

func TestAuth_PublicPathSkipsAuthentication(t *testing.T) {
	called := false
	h := Auth(&stubAuthenticator{err: errors.New("should not authenticate")}, true)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !called {
		t.Fatal("public path should reach the handler without credentials")
	}
}

func TestAuth_DisabledInjectsDevAdmin(t *testing.T) {
	var got *identity.Context
	h := Auth(nil, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))

	if got == nil || got.Role != identity.RoleSysAdmin {
		t.Fatalf("identity = %+v, want sys_admin dev context", got)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		idc        *identity.Context
		wantStatus int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"role allowed", &identity.Context{Role: identity.RoleOrgAdmin}, http.StatusOK},
		{"sys_admin always passes", &identity.Context{Role: identity.RoleSysAdmin}, http.StatusOK},
		{"role denied", &identity.Context{Role: identity.RoleOrgUser}, http.StatusForbidden},
		{"client_user denied", &identity.Context{Role: identity.RoleClientUser}, http.StatusForbidden},
	}

	h := RequireRole(identity.RoleOrgAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
			if tt.idc != nil {
				req = req.WithContext(WithIdentity(req.Context(), tt.idc))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request ID on the response")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-7")
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-7" {
		t.Fatalf("request ID = %q, want the caller's req-7", got)
	}
}

func TestRateLimiter_BurstThenThrottle(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 after the burst", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After on throttled response")
	}
}

func TestRateLimiter_CallerKeyedByAPIKeyPrefix(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/", nil)
	a.Header.Set("X-API-Key", "atl_aaaaaaaa0000000000000000000000000000000000000000")
	b := httptest.NewRequest(http.MethodGet, "/", nil)
	b.Header.Set("X-API-Key", "atl_bbbbbbbb0000000000000000000000000000000000000000")

	if callerKey(a) == callerKey(b) {
		t.Fatal("distinct API keys must not share a bucket")
	}

	a2 := httptest.NewRequest(http.MethodGet, "/", nil)
	a2.Header.Set("X-API-Key", "atl_aaaaaaaa1111111111111111111111111111111111111111")
	if callerKey(a) != callerKey(a2) {
		t.Fatal("keys sharing a lookup prefix should share a bucket")
	}
}

func TestRateLimiter_CleanupEvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if rl.Len() != 1 {
		t.Fatalf("tracked buckets = %d, want 1", rl.Len())
	}

	time.Sleep(5 * time.Millisecond)
	rl.cleanup(time.Millisecond)

	if rl.Len() != 0 {
		t.Fatalf("tracked buckets = %d, want 0 after cleanup", rl.Len())
	}
}
