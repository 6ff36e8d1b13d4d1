package service

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/priority"
	"github.com/atelierhq/atelier/internal/domain/workset"
	"github.com/atelierhq/atelier/internal/port/database"
)

// SetService manages sets, which hold requirements and hang off a project
// (optionally inside a phase) or directly off a client.
type SetService struct {
	store database.Store
	agg   *AggregationService
}

// NewSetService creates a new SetService.
func NewSetService(store database.Store, agg *AggregationService) *SetService {
	return &SetService{store: store, agg: agg}
}

// List returns sets matching the filter. Portal users only ever see
// portal-visible sets, whatever filter they send.
func (s *SetService) List(ctx context.Context, filter workset.Filter) ([]workset.Set, error) {
	if isClientUser(ctx) {
		filter.PortalOnly = true
	}
	return s.store.ListSets(ctx, filter)
}

// Get returns a set by id.
func (s *SetService) Get(ctx context.Context, id string) (*workset.Set, error) {
	set, err := s.store.GetSet(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(ctx, set.ShowInClientPortal); err != nil {
		return nil, err
	}
	return set, nil
}

// Create creates a set. Priority is derived from importance and urgency.
func (s *SetService) Create(ctx context.Context, req *workset.CreateRequest) (*workset.Set, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	isTemplate := false
	if req.ClientID != "" {
		if _, err := s.store.GetClient(ctx, req.ClientID); err != nil {
			return nil, err
		}
	}
	if req.ProjectID != "" {
		p, err := s.store.GetProject(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
		isTemplate = p.IsTemplate
	}
	if req.PhaseID != "" {
		ph, err := s.store.GetPhase(ctx, req.PhaseID)
		if err != nil {
			return nil, err
		}
		if ph.ProjectID != req.ProjectID {
			return nil, domain.Validationf("phase_id", "must belong to project %s", req.ProjectID)
		}
	}

	siblings, err := s.store.ListSets(ctx, workset.Filter{
		ClientID:         req.ClientID,
		ProjectID:        req.ProjectID,
		PhaseID:          req.PhaseID,
		IncludeTemplates: isTemplate,
	})
	if err != nil {
		return nil, err
	}

	displayID, err := nextDisplayID(ctx, s.store, "set", workset.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = priority.UrgencyMedium
	}
	importance := req.Importance
	if importance == "" {
		importance = priority.ImportanceMedium
	}

	set := &workset.Set{
		ID:                 newID(),
		DisplayID:          displayID,
		ClientID:           req.ClientID,
		ProjectID:          req.ProjectID,
		PhaseID:            req.PhaseID,
		Name:               req.Name,
		Description:        req.Description,
		SetOrder:           len(siblings),
		Urgency:            urgency,
		Importance:         importance,
		Priority:           priority.Score(importance, urgency),
		ShowInClientPortal: req.ShowInClientPortal,
		IsTemplate:         isTemplate,
	}
	if err := s.store.CreateSet(ctx, set); err != nil {
		return nil, fmt.Errorf("create set: %w", err)
	}

	// A new 0% set drags the parent phase's mean down immediately.
	if s.agg != nil && set.PhaseID != "" && !set.IsTemplate {
		if err := s.agg.recomputePhase(ctx, set.PhaseID); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Update applies partial updates. Priority is recomputed whenever urgency or
// importance changes; caller-supplied priority values are never accepted.
func (s *SetService) Update(ctx context.Context, id string, req workset.UpdateRequest) (*workset.Set, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	set, err := s.store.GetSet(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.PhaseID != nil && *req.PhaseID != "" {
		ph, err := s.store.GetPhase(ctx, *req.PhaseID)
		if err != nil {
			return nil, err
		}
		if ph.ProjectID != set.ProjectID {
			return nil, domain.Validationf("phase_id", "must belong to project %s", set.ProjectID)
		}
	}

	oldPhase := set.PhaseID
	if req.Name != nil {
		set.Name = *req.Name
	}
	if req.Description != nil {
		set.Description = *req.Description
	}
	if req.PhaseID != nil {
		set.PhaseID = *req.PhaseID
	}
	if req.Urgency != nil {
		set.Urgency = *req.Urgency
	}
	if req.Importance != nil {
		set.Importance = *req.Importance
	}
	if req.ShowInClientPortal != nil {
		set.ShowInClientPortal = *req.ShowInClientPortal
	}
	set.Priority = priority.Score(set.Importance, set.Urgency)

	if err := s.store.UpdateSet(ctx, set); err != nil {
		return nil, err
	}

	// Moving a set between phases changes both phases' rollups.
	if s.agg != nil && oldPhase != set.PhaseID {
		if err := s.agg.RecomputeForSet(ctx, set.ID); err != nil {
			return nil, err
		}
		if oldPhase != "" {
			if err := s.agg.recomputePhase(ctx, oldPhase); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// Delete soft-deletes a set and refreshes the parent phase rollup.
func (s *SetService) Delete(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	set, err := s.store.GetSet(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteSet(ctx, id, actorID(ctx)); err != nil {
		return err
	}
	if s.agg != nil && set.PhaseID != "" {
		return s.agg.recomputePhase(ctx, set.PhaseID)
	}
	return nil
}
