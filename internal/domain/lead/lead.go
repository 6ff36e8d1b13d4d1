// Package lead defines the pre-client sales pipeline record and its contact
// join.
package lead

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// DisplayPrefix is the display-id prefix for leads.
const DisplayPrefix = "LD"

// Status is the pipeline stage of a lead.
type Status string

const (
	StatusNew         Status = "new"
	StatusContacted   Status = "contacted"
	StatusQualified   Status = "qualified"
	StatusProposal    Status = "proposal"
	StatusNegotiation Status = "negotiation"
	StatusWon         Status = "won"
	StatusLost        Status = "lost"
)

// ValidStatuses is the set of accepted lead statuses.
var ValidStatuses = map[Status]bool{
	StatusNew:         true,
	StatusContacted:   true,
	StatusQualified:   true,
	StatusProposal:    true,
	StatusNegotiation: true,
	StatusWon:         true,
	StatusLost:        true,
}

// stageRank orders the forward pipeline; won/lost are terminal.
var stageRank = map[Status]int{
	StatusNew:         1,
	StatusContacted:   2,
	StatusQualified:   3,
	StatusProposal:    4,
	StatusNegotiation: 5,
}

// CanTransition reports whether moving a lead from one status to another is
// allowed: forward or backward through the open pipeline, into won/lost from
// any open stage, never out of a terminal stage.
func CanTransition(from, to Status) bool {
	if !ValidStatuses[from] || !ValidStatuses[to] {
		return false
	}
	if from == StatusWon || from == StatusLost {
		return false
	}
	if to == StatusWon || to == StatusLost {
		return true
	}
	return stageRank[to] > 0
}

// Lead is a sales-pipeline record that may be converted into a client.
type Lead struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id"`
	DisplayID           string     `json:"display_id"`
	CompanyName         string     `json:"company_name"`
	Status              Status     `json:"status"`
	Source              string     `json:"source,omitempty"`
	EstimatedValue      float64    `json:"estimated_value"`
	Notes               string     `json:"notes,omitempty"`
	ConvertedToClientID string     `json:"converted_to_client_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	CreatedBy           string     `json:"created_by,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
	UpdatedBy           string     `json:"updated_by,omitempty"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

// Converted reports whether the lead has already been materialized.
func (l *Lead) Converted() bool { return l.ConvertedToClientID != "" }

// ContactLink is the typed result of the lead↔contact join.
type ContactLink struct {
	ContactID       string    `json:"contact_id"`
	LeadID          string    `json:"lead_id"`
	Role            string    `json:"role,omitempty"`
	IsPrimary       bool      `json:"is_primary"`
	IsDecisionMaker bool      `json:"is_decision_maker"`
	LinkedAt        time.Time `json:"linked_at"`
}

// CreateRequest is the input for creating a lead.
type CreateRequest struct {
	CompanyName    string  `json:"company_name"`
	Status         Status  `json:"status,omitempty"`
	Source         string  `json:"source,omitempty"`
	EstimatedValue float64 `json:"estimated_value,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

// Validate checks the CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.CompanyName == "" {
		return domain.Validationf("company_name", "is required")
	}
	if r.Status != "" && !ValidStatuses[r.Status] {
		return domain.Validationf("status", "invalid value %q", r.Status)
	}
	if r.EstimatedValue < 0 {
		return domain.Validationf("estimated_value", "must not be negative")
	}
	return nil
}

// UpdateRequest is the input for a partial lead update.
type UpdateRequest struct {
	CompanyName    *string  `json:"company_name,omitempty"`
	Status         *Status  `json:"status,omitempty"`
	Source         *string  `json:"source,omitempty"`
	EstimatedValue *float64 `json:"estimated_value,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

// Validate checks the UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.CompanyName != nil && *r.CompanyName == "" {
		return domain.Validationf("company_name", "must not be empty")
	}
	if r.Status != nil && !ValidStatuses[*r.Status] {
		return domain.Validationf("status", "invalid value %q", *r.Status)
	}
	return nil
}

// ConvertOptions controls what is copied during lead conversion.
type ConvertOptions struct {
	CopyContacts  bool `json:"copy_contacts,omitempty"`
	CopyDocuments bool `json:"copy_documents,omitempty"`
}
