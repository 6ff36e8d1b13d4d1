// Package project defines the project domain model, child of a client.
package project

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// DisplayPrefix is the display-id prefix for projects.
const DisplayPrefix = "PR"

// Status is the delivery state of a project.
type Status string

const (
	StatusPlanning Status = "planning"
	StatusActive   Status = "active"
	StatusOnHold   Status = "on_hold"
	StatusDone     Status = "completed"
	StatusArchived Status = "archived"
)

// ValidStatuses is the set of accepted project statuses.
var ValidStatuses = map[Status]bool{
	StatusPlanning: true,
	StatusActive:   true,
	StatusOnHold:   true,
	StatusDone:     true,
	StatusArchived: true,
}

// Health is the delivery-confidence indicator.
type Health string

const (
	HealthOnTrack  Health = "on_track"
	HealthAtRisk   Health = "at_risk"
	HealthOffTrack Health = "off_track"
)

// ValidHealth is the set of accepted health values.
var ValidHealth = map[Health]bool{
	HealthOnTrack:  true,
	HealthAtRisk:   true,
	HealthOffTrack: true,
}

// Project is a delivery engagement under a client. CompletionPct is derived
// from child phases and must never be set directly by a caller.
type Project struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	DisplayID       string     `json:"display_id"`
	ClientID        string     `json:"client_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Status          Status     `json:"status"`
	Health          Health     `json:"health"`
	CompletionPct   int        `json:"completion_pct"`
	LeadID          string     `json:"lead_id,omitempty"`
	SecondaryLeadID string     `json:"secondary_lead_id,omitempty"`
	PMID            string     `json:"pm_id,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	IsTemplate      bool       `json:"is_template"`
	CloneBatchID    string     `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	CreatedBy       string     `json:"created_by,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
	UpdatedBy       string     `json:"updated_by,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// CreateRequest is the input for creating a project.
type CreateRequest struct {
	ClientID        string     `json:"client_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Status          Status     `json:"status,omitempty"`
	LeadID          string     `json:"lead_id,omitempty"`
	SecondaryLeadID string     `json:"secondary_lead_id,omitempty"`
	PMID            string     `json:"pm_id,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	IsTemplate      bool       `json:"is_template,omitempty"`
}

// Validate checks the CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.ClientID == "" {
		return domain.Validationf("client_id", "is required")
	}
	if r.Name == "" {
		return domain.Validationf("name", "is required")
	}
	if r.Status != "" && !ValidStatuses[r.Status] {
		return domain.Validationf("status", "invalid value %q", r.Status)
	}
	return nil
}

// UpdateRequest is the input for a partial project update. Completion is
// absent on purpose; it is derived.
type UpdateRequest struct {
	Name            *string    `json:"name,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	Health          *Health    `json:"health,omitempty"`
	LeadID          *string    `json:"lead_id,omitempty"`
	SecondaryLeadID *string    `json:"secondary_lead_id,omitempty"`
	PMID            *string    `json:"pm_id,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
}

// Validate checks the UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return domain.Validationf("name", "must not be empty")
	}
	if r.Status != nil && !ValidStatuses[*r.Status] {
		return domain.Validationf("status", "invalid value %q", *r.Status)
	}
	if r.Health != nil && !ValidHealth[*r.Health] {
		return domain.Validationf("health", "invalid value %q", *r.Health)
	}
	return nil
}

// DuplicateOptions controls the template/clone engine.
type DuplicateOptions struct {
	NewClientID      string `json:"new_client_id,omitempty"`
	NewName          string `json:"new_name,omitempty"`
	IncludeChildren  bool   `json:"include_children,omitempty"`
	ClearDates       bool   `json:"clear_dates,omitempty"`
	ClearAssignments bool   `json:"clear_assignments,omitempty"`
	AsTemplate       bool   `json:"as_template,omitempty"`
}
