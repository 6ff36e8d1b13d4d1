// Package pitch defines the optional pitch layer between a set and its
// requirements.
package pitch

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// DisplayPrefix is the display-id prefix for pitches.
const DisplayPrefix = "PI"

// Pitch is a proposed slice of a set. Its parent set is immutable after
// creation. CompletionPct is derived from its requirements.
type Pitch struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	DisplayID     string     `json:"display_id"`
	SetID         string     `json:"set_id"`
	Name          string     `json:"name"`
	Summary       string     `json:"summary,omitempty"`
	PitchOrder    int        `json:"pitch_order"`
	IsApproved    bool       `json:"is_approved"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	CompletionPct int        `json:"completion_pct"`
	IsTemplate    bool       `json:"is_template"`
	CloneBatchID  string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
	UpdatedBy     string     `json:"updated_by,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// CreateRequest is the input for creating a pitch.
type CreateRequest struct {
	SetID   string `json:"set_id"`
	Name    string `json:"name"`
	Summary string `json:"summary,omitempty"`
}

// Validate checks the CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.SetID == "" {
		return domain.Validationf("set_id", "is required")
	}
	if r.Name == "" {
		return domain.Validationf("name", "is required")
	}
	return nil
}

// UpdateRequest is the input for a partial pitch update. SetID is absent:
// the parent set cannot be reassigned.
type UpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Summary *string `json:"summary,omitempty"`
}

// Validate checks the UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return domain.Validationf("name", "must not be empty")
	}
	return nil
}
