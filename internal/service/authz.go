package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/identity"
	"github.com/atelierhq/atelier/internal/middleware"
	"github.com/atelierhq/atelier/internal/port/cache"
	"github.com/atelierhq/atelier/internal/port/database"
)

// Access is the kind of operation being authorized.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
)

// AuthzService evaluates the access policy and resolves effective roles.
// The effective role is always re-resolved from memberships, never taken
// from anything the client sent; the cache only shortens the window between
// store round-trips.
type AuthzService struct {
	store   database.Store
	cache   cache.Cache
	roleTTL time.Duration
	group   singleflight.Group
}

// NewAuthzService creates an AuthzService backed by the given role cache.
func NewAuthzService(store database.Store, c cache.Cache, roleTTL time.Duration) *AuthzService {
	return &AuthzService{store: store, cache: c, roleTTL: roleTTL}
}

// ResolveRole returns the user's highest-precedence membership role across
// all tenants, plus whether the user holds any active membership in the
// given tenant. Concurrent lookups for one user are deduplicated.
func (s *AuthzService) ResolveRole(ctx context.Context, userID, tenantID string) (identity.Role, bool, error) {
	key := "role:" + userID + ":" + tenantID

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok && len(data) > 1 {
			return identity.Role(data[1:]), data[0] == 1, nil
		}
	}

	type resolved struct {
		role   identity.Role
		member bool
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		memberships, err := s.store.ListMemberships(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("resolve role for %s: %w", userID, err)
		}
		var roles []identity.Role
		member := false
		for _, m := range memberships {
			if m.Status != identity.MembershipActive {
				continue
			}
			roles = append(roles, m.Role)
			if m.TenantID == tenantID {
				member = true
			}
		}
		role := identity.Highest(roles)
		if role == identity.RoleSysAdmin {
			member = true
		}

		if s.cache != nil {
			memberByte := byte(0)
			if member {
				memberByte = 1
			}
			_ = s.cache.Set(ctx, key, append([]byte{memberByte}, role...), s.roleTTL)
		}
		return resolved{role: role, member: member}, nil
	})
	if err != nil {
		return "", false, err
	}
	r := v.(resolved)
	return r.role, r.member, nil
}

// InvalidateRole drops a user's cached role after a membership change.
func (s *AuthzService) InvalidateRole(ctx context.Context, userID, tenantID string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "role:"+userID+":"+tenantID)
	}
}

// Authorize checks whether the acting identity may perform the given access
// on a row owned by entityTenantID. portalVisible is the row's
// show_in_client_portal flag (pass true for entities without the flag).
//
// sys_admin bypasses tenancy entirely. Everyone else is denied across
// tenant boundaries. Writes require org_admin or org_user. client_user is
// read-only and sees only portal-visible rows.
func Authorize(ctx context.Context, access Access, entityTenantID string, portalVisible bool) error {
	idc := middleware.IdentityFromContext(ctx)
	if idc == nil {
		return domain.ErrForbidden
	}
	if idc.SysAdmin() {
		return nil
	}
	if entityTenantID != "" && entityTenantID != idc.TenantID {
		// Cross-tenant reads report not-found, not forbidden: existence of
		// another tenant's row must not leak.
		if access == AccessRead {
			return domain.ErrNotFound
		}
		return domain.ErrForbidden
	}

	switch idc.Role {
	case identity.RoleOrgAdmin, identity.RoleOrgUser:
		return nil
	case identity.RoleClientUser:
		if access != AccessRead {
			return domain.ErrForbidden
		}
		if !portalVisible {
			return domain.ErrNotFound
		}
		return nil
	default:
		return domain.ErrForbidden
	}
}

// authorizeWrite gates a mutation on the acting identity's role. Calls that
// carry no identity in context (admin CLI, migrations, internal jobs) are
// trusted; every HTTP request carries one by the time it reaches a service.
func authorizeWrite(ctx context.Context) error {
	if middleware.IdentityFromContext(ctx) == nil {
		return nil
	}
	return Authorize(ctx, AccessWrite, "", true)
}

// authorizeRead gates a fetch the same way, with the row's portal flag.
func authorizeRead(ctx context.Context, portalVisible bool) error {
	if middleware.IdentityFromContext(ctx) == nil {
		return nil
	}
	return Authorize(ctx, AccessRead, "", portalVisible)
}

// isClientUser reports whether the acting identity is a portal user, whose
// list queries are forced onto portal-visible rows.
func isClientUser(ctx context.Context) bool {
	idc := middleware.IdentityFromContext(ctx)
	return idc != nil && idc.Role == identity.RoleClientUser
}
