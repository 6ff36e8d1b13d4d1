package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/priority"
	"github.com/atelierhq/atelier/internal/domain/requirement"
	"github.com/atelierhq/atelier/internal/port/database"
)

// RequirementService manages the leaf units of work and drives the
// completion rollup: any mutation that can change a set's or pitch's done
// ratio recomputes the chain synchronously before returning.
type RequirementService struct {
	store database.Store
	agg   *AggregationService
}

// NewRequirementService creates a new RequirementService.
func NewRequirementService(store database.Store, agg *AggregationService) *RequirementService {
	return &RequirementService{store: store, agg: agg}
}

// List returns requirements matching the filter. Portal users only ever see
// portal-visible rows, whatever filter they send.
func (s *RequirementService) List(ctx context.Context, f requirement.Filter) ([]requirement.Requirement, error) {
	if isClientUser(ctx) {
		f.PortalOnly = true
	}
	return s.store.ListRequirements(ctx, f)
}

// Get returns a requirement by id.
func (s *RequirementService) Get(ctx context.Context, id string) (*requirement.Requirement, error) {
	r, err := s.store.GetRequirement(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(ctx, r.ShowInClientPortal); err != nil {
		return nil, err
	}
	return r, nil
}

// Create creates a requirement under a set, optionally inside a pitch of the
// same set.
func (s *RequirementService) Create(ctx context.Context, req *requirement.CreateRequest) (*requirement.Requirement, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	set, err := s.store.GetSet(ctx, req.SetID)
	if err != nil {
		return nil, err
	}
	if req.PitchID != "" {
		if err := s.validatePitch(ctx, req.SetID, req.PitchID); err != nil {
			return nil, err
		}
	}

	siblings, err := s.store.ListRequirements(ctx, requirement.Filter{SetID: req.SetID, IncludeTemplates: set.IsTemplate})
	if err != nil {
		return nil, err
	}

	displayID, err := nextDisplayID(ctx, s.store, "requirement", requirement.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = requirement.StatusOpen
	}
	urgency := req.Urgency
	if urgency == "" {
		urgency = priority.UrgencyMedium
	}
	importance := req.Importance
	if importance == "" {
		importance = priority.ImportanceMedium
	}

	r := &requirement.Requirement{
		ID:                 newID(),
		DisplayID:          displayID,
		SetID:              req.SetID,
		PitchID:            req.PitchID,
		Title:              req.Title,
		Details:            req.Details,
		Status:             status,
		ReqOrder:           len(siblings),
		Urgency:            urgency,
		Importance:         importance,
		Priority:           priority.Score(importance, urgency),
		AssigneeID:         req.AssigneeID,
		DueDate:            req.DueDate,
		RequiresReview:     req.RequiresReview,
		IsTask:             req.IsTask,
		ShowInClientPortal: req.ShowInClientPortal,
		IsTemplate:         set.IsTemplate,
	}
	if r.RequiresReview {
		r.ReviewStatus = requirement.ReviewPending
	}
	if err := s.store.CreateRequirement(ctx, r); err != nil {
		return nil, fmt.Errorf("create requirement: %w", err)
	}

	// A new requirement dilutes the done ratio of its set and pitch.
	if err := s.recompute(ctx, r.SetID, r.PitchID, ""); err != nil {
		return nil, err
	}
	return r, nil
}

// Update applies partial updates and recomputes completion when the change
// can move a done ratio. The parent set is immutable; the pitch may move,
// but only to a pitch of the same set.
func (s *RequirementService) Update(ctx context.Context, id string, req requirement.UpdateRequest) (*requirement.Requirement, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r, err := s.store.GetRequirement(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.PitchID != nil && *req.PitchID != "" {
		if err := s.validatePitch(ctx, r.SetID, *req.PitchID); err != nil {
			return nil, err
		}
	}

	oldStatus := r.Status
	oldPitch := r.PitchID
	if req.PitchID != nil {
		r.PitchID = *req.PitchID
	}
	if req.Title != nil {
		r.Title = *req.Title
	}
	if req.Details != nil {
		r.Details = *req.Details
	}
	if req.Status != nil {
		r.Status = *req.Status
	}
	if req.Urgency != nil {
		r.Urgency = *req.Urgency
	}
	if req.Importance != nil {
		r.Importance = *req.Importance
	}
	if req.AssigneeID != nil {
		r.AssigneeID = *req.AssigneeID
	}
	if req.DueDate != nil {
		r.DueDate = req.DueDate
	}
	if req.RequiresReview != nil {
		r.RequiresReview = *req.RequiresReview
		if r.RequiresReview && r.ReviewStatus == "" {
			r.ReviewStatus = requirement.ReviewPending
		}
	}
	if req.ReviewStatus != nil {
		r.ReviewStatus = *req.ReviewStatus
		if *req.ReviewStatus != requirement.ReviewPending {
			now := time.Now().UTC()
			r.ReviewedAt = &now
			if r.ReviewerID == "" {
				r.ReviewerID = actorID(ctx)
			}
		}
	}
	if req.ReviewerID != nil {
		r.ReviewerID = *req.ReviewerID
	}
	if req.IsTask != nil {
		r.IsTask = *req.IsTask
	}
	if req.ShowInClientPortal != nil {
		r.ShowInClientPortal = *req.ShowInClientPortal
	}
	r.Priority = priority.Score(r.Importance, r.Urgency)

	if err := s.store.UpdateRequirement(ctx, r); err != nil {
		return nil, err
	}

	statusMoved := r.Status != oldStatus
	pitchMoved := r.PitchID != oldPitch
	if statusMoved || pitchMoved {
		stalePitch := ""
		if pitchMoved {
			stalePitch = oldPitch
		}
		if err := s.recompute(ctx, r.SetID, r.PitchID, stalePitch); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Delete soft-deletes a requirement and recomputes the chain it leaves.
func (s *RequirementService) Delete(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	r, err := s.store.GetRequirement(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteRequirement(ctx, id, actorID(ctx)); err != nil {
		return err
	}
	return s.recompute(ctx, r.SetID, r.PitchID, "")
}

// validatePitch enforces that a pitch belongs to the requirement's set.
func (s *RequirementService) validatePitch(ctx context.Context, setID, pitchID string) error {
	p, err := s.store.GetPitch(ctx, pitchID)
	if err != nil {
		return err
	}
	if p.SetID != setID {
		return domain.Validationf("pitch_id", "pitch %s belongs to a different set", pitchID)
	}
	return nil
}

// recompute refreshes the affected pitch percentages and then the full
// set→phase→project chain.
func (s *RequirementService) recompute(ctx context.Context, setID, pitchID, stalePitchID string) error {
	if s.agg == nil {
		return nil
	}
	if pitchID != "" {
		if err := s.agg.RecomputeForPitch(ctx, pitchID); err != nil {
			return err
		}
	}
	if stalePitchID != "" && stalePitchID != pitchID {
		if err := s.agg.RecomputeForPitch(ctx, stalePitchID); err != nil {
			return err
		}
	}
	return s.agg.RecomputeForSet(ctx, setID)
}
