// Package tenant defines the tenant domain model, the isolation boundary
// every scoped row belongs to.
package tenant

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// ValidStatuses is the set of accepted tenant statuses.
var ValidStatuses = map[Status]bool{
	StatusActive:    true,
	StatusSuspended: true,
	StatusCancelled: true,
}

// Plan is the subscription tier of a tenant.
type Plan string

const (
	PlanStarter Plan = "starter"
	PlanTeam    Plan = "team"
	PlanAgency  Plan = "agency"
)

// Tenant represents one customer organization.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    Status    `json:"status"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the tenant may serve requests.
func (t *Tenant) Active() bool { return t.Status == StatusActive }

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Plan Plan   `json:"plan,omitempty"`
}

// Validate checks the CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return domain.Validationf("name", "is required")
	}
	if r.Slug == "" {
		return domain.Validationf("slug", "is required")
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on a tenant.
type UpdateRequest struct {
	Name   string `json:"name,omitempty"`
	Status Status `json:"status,omitempty"`
	Plan   Plan   `json:"plan,omitempty"`
}
