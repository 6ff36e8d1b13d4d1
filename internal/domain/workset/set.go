// Package workset defines the set domain model. A set groups requirements
// and may hang off a project (optionally inside a phase) or directly off a
// client, skipping the project level.
package workset

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/priority"
)

// DisplayPrefix is the display-id prefix for sets.
const DisplayPrefix = "ST"

// Set is a grouped unit of delivery work. Priority and CompletionPct are
// derived columns; caller-supplied values are overwritten.
type Set struct {
	ID                 string              `json:"id"`
	TenantID           string              `json:"tenant_id"`
	DisplayID          string              `json:"display_id"`
	ClientID           string              `json:"client_id,omitempty"`
	ProjectID          string              `json:"project_id,omitempty"`
	PhaseID            string              `json:"phase_id,omitempty"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	SetOrder           int                 `json:"set_order"`
	Urgency            priority.Urgency    `json:"urgency"`
	Importance         priority.Importance `json:"importance"`
	Priority           int                 `json:"priority"`
	CompletionPct      int                 `json:"completion_pct"`
	ShowInClientPortal bool                `json:"show_in_client_portal"`
	IsTemplate         bool                `json:"is_template"`
	CloneBatchID       string              `json:"-"`
	CreatedAt          time.Time           `json:"created_at"`
	CreatedBy          string              `json:"created_by,omitempty"`
	UpdatedAt          time.Time           `json:"updated_at"`
	UpdatedBy          string              `json:"updated_by,omitempty"`
	DeletedAt          *time.Time          `json:"deleted_at,omitempty"`
}

// CreateRequest is the input for creating a set. At least one of ClientID or
// ProjectID must be present.
type CreateRequest struct {
	ClientID           string              `json:"client_id,omitempty"`
	ProjectID          string              `json:"project_id,omitempty"`
	PhaseID            string              `json:"phase_id,omitempty"`
	Name               string              `json:"name"`
	Description        string              `json:"description,omitempty"`
	Urgency            priority.Urgency    `json:"urgency,omitempty"`
	Importance         priority.Importance `json:"importance,omitempty"`
	ShowInClientPortal bool                `json:"show_in_client_portal,omitempty"`
}

// Validate checks the CreateRequest, including the parent rule.
func (r *CreateRequest) Validate() error {
	if r.ClientID == "" && r.ProjectID == "" {
		return domain.Validationf("parent", "client_id or project_id is required")
	}
	if r.PhaseID != "" && r.ProjectID == "" {
		return domain.Validationf("phase_id", "requires project_id")
	}
	if r.Name == "" {
		return domain.Validationf("name", "is required")
	}
	if r.Urgency != "" && !priority.ValidUrgency[r.Urgency] {
		return domain.Validationf("urgency", "invalid value %q", r.Urgency)
	}
	if r.Importance != "" && !priority.ValidImportance[r.Importance] {
		return domain.Validationf("importance", "invalid value %q", r.Importance)
	}
	return nil
}

// UpdateRequest is the input for a partial set update. Parent ids are not
// updatable here; priority and completion are derived.
type UpdateRequest struct {
	Name               *string              `json:"name,omitempty"`
	Description        *string              `json:"description,omitempty"`
	PhaseID            *string              `json:"phase_id,omitempty"`
	Urgency            *priority.Urgency    `json:"urgency,omitempty"`
	Importance         *priority.Importance `json:"importance,omitempty"`
	ShowInClientPortal *bool                `json:"show_in_client_portal,omitempty"`
}

// Validate checks the UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return domain.Validationf("name", "must not be empty")
	}
	if r.Urgency != nil && !priority.ValidUrgency[*r.Urgency] {
		return domain.Validationf("urgency", "invalid value %q", *r.Urgency)
	}
	if r.Importance != nil && !priority.ValidImportance[*r.Importance] {
		return domain.Validationf("importance", "invalid value %q", *r.Importance)
	}
	return nil
}

// Filter selects sets by parent for list queries. Zero values mean "any".
// Template rows are excluded unless IncludeTemplates is set; the clone
// engine needs them when copying a template's subtree.
type Filter struct {
	ClientID         string
	ProjectID        string
	PhaseID          string
	PortalOnly       bool
	IncludeTemplates bool
}
