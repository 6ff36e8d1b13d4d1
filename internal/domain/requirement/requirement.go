// Package requirement defines the leaf unit of work.
package requirement

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/priority"
)

// DisplayPrefix is the display-id prefix for requirements.
const DisplayPrefix = "RQ"

// Status is the workflow state of a requirement.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ValidStatuses is the set of accepted requirement statuses.
var ValidStatuses = map[Status]bool{
	StatusOpen:       true,
	StatusInProgress: true,
	StatusBlocked:    true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

// ReviewStatus is the state of the optional review workflow.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ValidReviewStatuses is the set of accepted review statuses.
var ValidReviewStatuses = map[ReviewStatus]bool{
	ReviewPending:  true,
	ReviewApproved: true,
	ReviewRejected: true,
}

// Requirement is the leaf unit of work. SetID is immutable after creation;
// PitchID, when present, must reference a pitch of the same set. Priority is
// derived from (importance, urgency).
type Requirement struct {
	ID                 string              `json:"id"`
	TenantID           string              `json:"tenant_id"`
	DisplayID          string              `json:"display_id"`
	SetID              string              `json:"set_id"`
	PitchID            string              `json:"pitch_id,omitempty"`
	Title              string              `json:"title"`
	Details            string              `json:"details,omitempty"`
	Status             Status              `json:"status"`
	ReqOrder           int                 `json:"req_order"`
	Urgency            priority.Urgency    `json:"urgency"`
	Importance         priority.Importance `json:"importance"`
	Priority           int                 `json:"priority"`
	AssigneeID         string              `json:"assignee_id,omitempty"`
	DueDate            *time.Time          `json:"due_date,omitempty"`
	RequiresReview     bool                `json:"requires_review"`
	ReviewStatus       ReviewStatus        `json:"review_status,omitempty"`
	ReviewerID         string              `json:"reviewer_id,omitempty"`
	ReviewedAt         *time.Time          `json:"reviewed_at,omitempty"`
	IsTask             bool                `json:"is_task"`
	ShowInClientPortal bool                `json:"show_in_client_portal"`
	IsTemplate         bool                `json:"is_template"`
	CloneBatchID       string              `json:"-"`
	CreatedAt          time.Time           `json:"created_at"`
	CreatedBy          string              `json:"created_by,omitempty"`
	UpdatedAt          time.Time           `json:"updated_at"`
	UpdatedBy          string              `json:"updated_by,omitempty"`
	DeletedAt          *time.Time          `json:"deleted_at,omitempty"`
}

// Done reports whether the requirement counts as completed for aggregation.
func (r *Requirement) Done() bool { return r.Status == StatusCompleted }

// CreateRequest is the input for creating a requirement.
type CreateRequest struct {
	SetID              string              `json:"set_id"`
	PitchID            string              `json:"pitch_id,omitempty"`
	Title              string              `json:"title"`
	Details            string              `json:"details,omitempty"`
	Status             Status              `json:"status,omitempty"`
	Urgency            priority.Urgency    `json:"urgency,omitempty"`
	Importance         priority.Importance `json:"importance,omitempty"`
	AssigneeID         string              `json:"assignee_id,omitempty"`
	DueDate            *time.Time          `json:"due_date,omitempty"`
	RequiresReview     bool                `json:"requires_review,omitempty"`
	IsTask             bool                `json:"is_task,omitempty"`
	ShowInClientPortal bool                `json:"show_in_client_portal,omitempty"`
}

// Validate checks the CreateRequest.
func (r *CreateRequest) Validate() error {
	if r.SetID == "" {
		return domain.Validationf("set_id", "is required")
	}
	if r.Title == "" {
		return domain.Validationf("title", "is required")
	}
	if r.Status != "" && !ValidStatuses[r.Status] {
		return domain.Validationf("status", "invalid value %q", r.Status)
	}
	if r.Urgency != "" && !priority.ValidUrgency[r.Urgency] {
		return domain.Validationf("urgency", "invalid value %q", r.Urgency)
	}
	if r.Importance != "" && !priority.ValidImportance[r.Importance] {
		return domain.Validationf("importance", "invalid value %q", r.Importance)
	}
	return nil
}

// UpdateRequest is the input for a partial requirement update. SetID is
// absent by design: the parent set cannot be silently reassigned.
type UpdateRequest struct {
	PitchID            *string              `json:"pitch_id,omitempty"`
	Title              *string              `json:"title,omitempty"`
	Details            *string              `json:"details,omitempty"`
	Status             *Status              `json:"status,omitempty"`
	Urgency            *priority.Urgency    `json:"urgency,omitempty"`
	Importance         *priority.Importance `json:"importance,omitempty"`
	AssigneeID         *string              `json:"assignee_id,omitempty"`
	DueDate            *time.Time           `json:"due_date,omitempty"`
	RequiresReview     *bool                `json:"requires_review,omitempty"`
	ReviewStatus       *ReviewStatus        `json:"review_status,omitempty"`
	ReviewerID         *string              `json:"reviewer_id,omitempty"`
	IsTask             *bool                `json:"is_task,omitempty"`
	ShowInClientPortal *bool                `json:"show_in_client_portal,omitempty"`
}

// Validate checks the UpdateRequest.
func (r *UpdateRequest) Validate() error {
	if r.Title != nil && *r.Title == "" {
		return domain.Validationf("title", "must not be empty")
	}
	if r.Status != nil && !ValidStatuses[*r.Status] {
		return domain.Validationf("status", "invalid value %q", *r.Status)
	}
	if r.Urgency != nil && !priority.ValidUrgency[*r.Urgency] {
		return domain.Validationf("urgency", "invalid value %q", *r.Urgency)
	}
	if r.Importance != nil && !priority.ValidImportance[*r.Importance] {
		return domain.Validationf("importance", "invalid value %q", *r.Importance)
	}
	if r.ReviewStatus != nil && !ValidReviewStatuses[*r.ReviewStatus] {
		return domain.Validationf("review_status", "invalid value %q", *r.ReviewStatus)
	}
	return nil
}

// Filter selects requirements for list queries. Zero values mean "any".
// Template rows are excluded unless IncludeTemplates is set.
type Filter struct {
	SetID            string
	PitchID          string
	AssigneeID       string
	TasksOnly        bool
	PortalOnly       bool
	IncludeTemplates bool
}
