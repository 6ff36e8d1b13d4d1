package service

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/phase"
	"github.com/atelierhq/atelier/internal/port/database"
)

// PhaseService manages the ordered phases of a project.
type PhaseService struct {
	store database.Store
	agg   *AggregationService
}

// NewPhaseService creates a new PhaseService.
func NewPhaseService(store database.Store, agg *AggregationService) *PhaseService {
	return &PhaseService{store: store, agg: agg}
}

// List returns a project's phases in order.
func (s *PhaseService) List(ctx context.Context, projectID string) ([]phase.Phase, error) {
	return s.store.ListPhases(ctx, projectID)
}

// Get returns a phase by id.
func (s *PhaseService) Get(ctx context.Context, id string) (*phase.Phase, error) {
	return s.store.GetPhase(ctx, id)
}

// Create appends a phase at the end of the project's ordering.
func (s *PhaseService) Create(ctx context.Context, req *phase.CreateRequest) (*phase.Phase, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.store.ListPhases(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if req.PredecessorID != "" {
		if err := s.validatePredecessor(req.PredecessorID, siblings); err != nil {
			return nil, err
		}
	}

	displayID, err := nextDisplayID(ctx, s.store, "phase", phase.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	ph := &phase.Phase{
		ID:            newID(),
		DisplayID:     displayID,
		ProjectID:     req.ProjectID,
		Name:          req.Name,
		Description:   req.Description,
		PhaseOrder:    len(siblings),
		PredecessorID: req.PredecessorID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsTemplate:    p.IsTemplate,
	}
	if err := s.store.CreatePhase(ctx, ph); err != nil {
		return nil, fmt.Errorf("create phase: %w", err)
	}

	// A new 0% phase drags the project's mean down immediately.
	if s.agg != nil && !ph.IsTemplate {
		if err := s.agg.recomputeProject(ctx, ph.ProjectID); err != nil {
			return nil, err
		}
	}
	return ph, nil
}

// Update applies partial updates. Changing the predecessor is rejected when
// it would close a predecessor loop.
func (s *PhaseService) Update(ctx context.Context, id string, req phase.UpdateRequest) (*phase.Phase, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetPhase(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.PredecessorID != nil && *req.PredecessorID != "" {
		siblings, err := s.store.ListPhases(ctx, p.ProjectID)
		if err != nil {
			return nil, err
		}
		if err := s.validatePredecessor(*req.PredecessorID, siblings); err != nil {
			return nil, err
		}
		if phase.DetectCycle(id, *req.PredecessorID, siblings) {
			return nil, &domain.ConflictError{Reason: fmt.Sprintf("predecessor %s would create a cycle", *req.PredecessorID)}
		}
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.PredecessorID != nil {
		p.PredecessorID = *req.PredecessorID
	}
	if req.StartDate != nil {
		p.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		p.EndDate = req.EndDate
	}
	if err := s.store.UpdatePhase(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete soft-deletes a phase and refreshes the parent project rollup.
func (s *PhaseService) Delete(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	p, err := s.store.GetPhase(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeletePhase(ctx, id, actorID(ctx)); err != nil {
		return err
	}
	if s.agg != nil && !p.IsTemplate {
		return s.agg.recomputeProject(ctx, p.ProjectID)
	}
	return nil
}

// validatePredecessor checks the predecessor is a sibling in the same
// project.
func (s *PhaseService) validatePredecessor(predecessorID string, siblings []phase.Phase) error {
	for _, sib := range siblings {
		if sib.ID == predecessorID {
			return nil
		}
	}
	return domain.Validationf("predecessor_id", "must reference a phase in the same project")
}
