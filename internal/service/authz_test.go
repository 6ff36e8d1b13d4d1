package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/client"
	"github.com/atelierhq/atelier/internal/domain/identity"
	"github.com/atelierhq/atelier/internal/domain/lead"
	"github.com/atelierhq/atelier/internal/domain/project"
	"github.com/atelierhq/atelier/internal/domain/requirement"
	"github.com/atelierhq/atelier/internal/middleware"
)

// memCache is a Cache backed by a plain map; TTLs are ignored.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func asRole(ctx context.Context, role identity.Role, tenantID string) context.Context {
	return middleware.WithIdentity(ctx, &identity.Context{
		User:     identity.User{ID: "u1"},
		Role:     role,
		TenantID: tenantID,
	})
}

func TestAuthz_Matrix(t *testing.T) {
	cases := []struct {
		name          string
		role          identity.Role
		access        Access
		entityTenant  string
		portalVisible bool
		wantErr       error
	}{
		{"org admin reads own tenant", identity.RoleOrgAdmin, AccessRead, "t1", false, nil},
		{"org admin writes own tenant", identity.RoleOrgAdmin, AccessWrite, "t1", false, nil},
		{"org user writes own tenant", identity.RoleOrgUser, AccessWrite, "t1", false, nil},
		{"client user reads portal row", identity.RoleClientUser, AccessRead, "t1", true, nil},
		{"client user blind to hidden row", identity.RoleClientUser, AccessRead, "t1", false, domain.ErrNotFound},
		{"client user cannot write", identity.RoleClientUser, AccessWrite, "t1", true, domain.ErrForbidden},
		{"cross-tenant read hides existence", identity.RoleOrgAdmin, AccessRead, "t2", true, domain.ErrNotFound},
		{"cross-tenant write forbidden", identity.RoleOrgAdmin, AccessWrite, "t2", true, domain.ErrForbidden},
		{"sys admin crosses tenants", identity.RoleSysAdmin, AccessWrite, "t2", false, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := asRole(context.Background(), tc.role, "t1")
			err := Authorize(ctx, tc.access, tc.entityTenant, tc.portalVisible)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestAuthz_NoIdentityDenied(t *testing.T) {
	if err := Authorize(context.Background(), AccessRead, "t1", true); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestAuthz_ClientUserWritesDenied(t *testing.T) {
	m := newMockStore()
	m.clients["c1"] = &client.Client{ID: "c1", Name: "Acme"}
	ctx := asRole(context.Background(), identity.RoleClientUser, "t1")

	if _, err := NewProjectService(m).Create(ctx, &project.CreateRequest{ClientID: "c1", Name: "Site"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("project create err = %v, want forbidden", err)
	}
	if _, err := NewClientService(m).Create(ctx, &client.CreateRequest{Name: "Intruder"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("client create err = %v, want forbidden", err)
	}
	if err := NewOrderingService(m).Reorder(ctx, ScopePhase, "p1", []string{"A"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("reorder err = %v, want forbidden", err)
	}
	if _, err := NewLeadService(m, nil).ConvertToClient(ctx, "l1", lead.ConvertOptions{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("convert err = %v, want forbidden", err)
	}
	if _, err := NewTemplateService(m).Duplicate(ctx, "p1", project.DuplicateOptions{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("duplicate err = %v, want forbidden", err)
	}
	if _, err := NewRequirementService(m, nil).Update(ctx, "r1", requirement.UpdateRequest{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("requirement update err = %v, want forbidden", err)
	}
}

func TestAuthz_OrgUserWritesAllowed(t *testing.T) {
	m := newMockStore()
	m.clients["c1"] = &client.Client{ID: "c1", Name: "Acme"}
	ctx := asRole(context.Background(), identity.RoleOrgUser, "t1")

	if _, err := NewProjectService(m).Create(ctx, &project.CreateRequest{ClientID: "c1", Name: "Site"}); err != nil {
		t.Fatalf("org_user create: %v", err)
	}
}

func TestAuthz_InternalCallerTrusted(t *testing.T) {
	// The admin CLI and internal jobs carry no acting identity.
	m := newMockStore()
	if _, err := NewClientService(m).Create(context.Background(), &client.CreateRequest{Name: "Acme"}); err != nil {
		t.Fatalf("internal create: %v", err)
	}
}

func TestAuthz_ClientUserReadsPortalScoped(t *testing.T) {
	m := newMockStore()
	m.requirements["r1"] = &requirement.Requirement{ID: "r1", SetID: "s1", ShowInClientPortal: true}
	m.requirements["r2"] = &requirement.Requirement{ID: "r2", SetID: "s1"}
	svc := NewRequirementService(m, nil)
	ctx := asRole(context.Background(), identity.RoleClientUser, "t1")

	got, err := svc.List(ctx, requirement.Filter{SetID: "s1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Errorf("portal list = %v, want only r1", got)
	}

	if _, err := svc.Get(ctx, "r2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("hidden row get err = %v, want not found", err)
	}
	if _, err := svc.Get(ctx, "r1"); err != nil {
		t.Errorf("portal row get: %v", err)
	}
}

func TestAuthz_ResolveRoleHighestAcrossTenants(t *testing.T) {
	m := newMockStore()
	m.memberships = []identity.Membership{
		{TenantID: "t1", UserID: "u1", Role: identity.RoleClientUser, Status: identity.MembershipActive},
		{TenantID: "t2", UserID: "u1", Role: identity.RoleOrgAdmin, Status: identity.MembershipActive},
	}
	svc := NewAuthzService(m, nil, time.Minute)

	role, member, err := svc.ResolveRole(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != identity.RoleOrgAdmin {
		t.Errorf("role = %q, want org_admin (highest across tenants)", role)
	}
	if !member {
		t.Error("expected active membership in t1")
	}
}

func TestAuthz_SuspendedMembershipIgnored(t *testing.T) {
	m := newMockStore()
	m.memberships = []identity.Membership{
		{TenantID: "t1", UserID: "u1", Role: identity.RoleOrgAdmin, Status: identity.MembershipSuspended},
	}
	svc := NewAuthzService(m, nil, time.Minute)

	_, member, err := svc.ResolveRole(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if member {
		t.Error("suspended membership must not grant access")
	}
}

func TestAuthz_RoleCacheRoundTrip(t *testing.T) {
	m := newMockStore()
	m.memberships = []identity.Membership{
		{TenantID: "t1", UserID: "u1", Role: identity.RoleOrgUser, Status: identity.MembershipActive},
	}
	c := newMemCache()
	svc := NewAuthzService(m, c, time.Minute)
	ctx := context.Background()

	if _, _, err := svc.ResolveRole(ctx, "u1", "t1"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	// Second resolve must come from cache, not the store.
	m.failOn["ListMemberships"] = errors.New("store must not be hit")
	role, member, err := svc.ResolveRole(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if role != identity.RoleOrgUser || !member {
		t.Errorf("cached = (%q, %v), want (org_user, true)", role, member)
	}

	// Invalidation forces the next resolve back to the store.
	svc.InvalidateRole(ctx, "u1", "t1")
	if _, _, err := svc.ResolveRole(ctx, "u1", "t1"); err == nil {
		t.Fatal("expected store error after invalidation")
	}
}
