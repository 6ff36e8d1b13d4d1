// Package client defines the client domain model, the top of the delivery
// hierarchy, plus the contact join types.
package client

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// DisplayPrefix is the display-id prefix for clients.
const DisplayPrefix = "CL"

// Status is the lifecycle state of a client.
type Status string

const (
	StatusOnboarding  Status = "onboarding"
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusProspective Status = "prospective"
)

// ValidStatuses is the set of accepted client statuses.
var ValidStatuses = map[Status]bool{
	StatusOnboarding:  true,
	StatusActive:      true,
	StatusInactive:    true,
	StatusProspective: true,
}

// Client is one delivery customer of a tenant.
type Client struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	DisplayID    string     `json:"display_id"`
	Name         string     `json:"name"`
	Status       Status     `json:"status"`
	Industry     string     `json:"industry,omitempty"`
	Website      string     `json:"website,omitempty"`
	SourceLeadID string     `json:"source_lead_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedBy    string     `json:"created_by,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
	UpdatedBy    string     `json:"updated_by,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// CreateRequest is the input for creating a client.
type CreateRequest struct {
	Name     string `json:"name"`
	Status   Status `json:"status,omitempty"`
	Industry string `json:"industry,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Validate checks the CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return domain.Validationf("name", "is required")
	}
	if r.Status != "" && !ValidStatuses[r.Status] {
		return domain.Validationf("status", "invalid value %q", r.Status)
	}
	return nil
}

// UpdateRequest is the input for a partial client update.
type UpdateRequest struct {
	Name     *string `json:"name,omitempty"`
	Status   *Status `json:"status,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Website  *string `json:"website,omitempty"`
}

// Validate checks the UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return domain.Validationf("name", "must not be empty")
	}
	if r.Status != nil && !ValidStatuses[*r.Status] {
		return domain.Validationf("status", "invalid value %q", *r.Status)
	}
	return nil
}
