// Package identity defines users, tenant memberships, roles, and the acting
// context every operation is parameterized by.
package identity

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// Role is the authorization level of a tenant membership.
type Role string

const (
	// RoleSysAdmin is global: it is not bound to a tenant and bypasses
	// tenant scoping.
	RoleSysAdmin   Role = "sys_admin"
	RoleOrgAdmin   Role = "org_admin"
	RoleOrgUser    Role = "org_user"
	RoleClientUser Role = "client_user"
)

// precedence orders roles highest first; higher numbers win.
var precedence = map[Role]int{
	RoleSysAdmin:   4,
	RoleOrgAdmin:   3,
	RoleOrgUser:    2,
	RoleClientUser: 1,
}

// ValidRoles is the set of accepted roles.
var ValidRoles = map[Role]bool{
	RoleSysAdmin:   true,
	RoleOrgAdmin:   true,
	RoleOrgUser:    true,
	RoleClientUser: true,
}

// Precedence returns the rank of a role; unknown roles rank 0.
func (r Role) Precedence() int { return precedence[r] }

// Highest returns the highest-precedence role in the list, or RoleClientUser
// when the list is empty.
func Highest(roles []Role) Role {
	best := RoleClientUser
	for _, r := range roles {
		if r.Precedence() > best.Precedence() {
			best = r
		}
	}
	return best
}

// MembershipStatus is the state of a user's membership in a tenant.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipInvited   MembershipStatus = "invited"
	MembershipSuspended MembershipStatus = "suspended"
)

// User is a global (tenant-independent) person account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership links a user to a tenant with a role.
type Membership struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenant_id"`
	UserID    string           `json:"user_id"`
	Role      Role             `json:"role"`
	Status    MembershipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// APIKey is a bcrypt-hashed credential. The prefix is stored in clear for
// lookup; the secret part is only ever compared against the hash.
type APIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Prefix     string     `json:"prefix"`
	Hash       string     `json:"-"`
	Label      string     `json:"label"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Context is the resolved acting identity: the user, their effective role,
// and the active tenant. Repositories read the tenant from this context for
// every scoped query.
type Context struct {
	User     User
	Role     Role
	TenantID string
}

// SysAdmin reports whether the context bypasses tenant scoping.
func (c *Context) SysAdmin() bool { return c.Role == RoleSysAdmin }

// CreateUserRequest is the input for registering a global user.
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Validate checks the CreateUserRequest.
func (r *CreateUserRequest) Validate() error {
	if r.Email == "" {
		return domain.Validationf("email", "is required")
	}
	if r.Name == "" {
		return domain.Validationf("name", "is required")
	}
	return nil
}
