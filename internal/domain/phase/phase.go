// Package phase defines the phase domain model, an ordered child of a
// project with optional predecessor/successor chaining.
package phase

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// DisplayPrefix is the display-id prefix for phases.
const DisplayPrefix = "PH"

// Phase is one ordered stage of a project. CompletionPct is the rounded mean
// of child set percentages and is never set by a caller.
type Phase struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenant_id"`
	DisplayID     string     `json:"display_id"`
	ProjectID     string     `json:"project_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	PhaseOrder    int        `json:"phase_order"`
	PredecessorID string     `json:"predecessor_id,omitempty"`
	CompletionPct int        `json:"completion_pct"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	IsTemplate    bool       `json:"is_template"`
	CloneBatchID  string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
	UpdatedBy     string     `json:"updated_by,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// CreateRequest is the input for creating a phase.
type CreateRequest struct {
	ProjectID     string     `json:"project_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	PredecessorID string     `json:"predecessor_id,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// Validate checks the CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.ProjectID == "" {
		return domain.Validationf("project_id", "is required")
	}
	if r.Name == "" {
		return domain.Validationf("name", "is required")
	}
	return nil
}

// UpdateRequest is the input for a partial phase update.
type UpdateRequest struct {
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	PredecessorID *string    `json:"predecessor_id,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}

// Validate checks the UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil && *r.Name == "" {
		return domain.Validationf("name", "must not be empty")
	}
	return nil
}

// DetectCycle reports whether setting candidate as the predecessor of
// phaseID would close a predecessor loop. The walk follows predecessor links
// through the sibling set and is bounded by the sibling count, so a corrupt
// chain cannot loop forever.
func DetectCycle(phaseID, candidate string, siblings []Phase) bool {
	if candidate == "" {
		return false
	}
	if candidate == phaseID {
		return true
	}
	pred := make(map[string]string, len(siblings))
	for _, p := range siblings {
		pred[p.ID] = p.PredecessorID
	}
	cur := candidate
	for range siblings {
		next, ok := pred[cur]
		if !ok || next == "" {
			return false
		}
		if next == phaseID {
			return true
		}
		cur = next
	}
	return false
}
