package service

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/internal/domain/pitch"
	"github.com/atelierhq/atelier/internal/port/database"
)

// PitchService manages the optional pitch layer inside a set.
type PitchService struct {
	store database.Store
	agg   *AggregationService
}

// NewPitchService creates a new PitchService.
func NewPitchService(store database.Store, agg *AggregationService) *PitchService {
	return &PitchService{store: store, agg: agg}
}

// List returns a set's pitches in order.
func (s *PitchService) List(ctx context.Context, setID string) ([]pitch.Pitch, error) {
	return s.store.ListPitches(ctx, setID)
}

// Get returns a pitch by id.
func (s *PitchService) Get(ctx context.Context, id string) (*pitch.Pitch, error) {
	return s.store.GetPitch(ctx, id)
}

// Create appends a pitch at the end of the set's ordering.
func (s *PitchService) Create(ctx context.Context, req *pitch.CreateRequest) (*pitch.Pitch, error) {
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

	siblings, err := s.store.ListPitches(ctx, req.SetID)
	if err != nil {
		return nil, err
	}

	displayID, err := nextDisplayID(ctx, s.store, "pitch", pitch.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	p := &pitch.Pitch{
		ID:         newID(),
		DisplayID:  displayID,
		SetID:      req.SetID,
		Name:       req.Name,
		Summary:    req.Summary,
		PitchOrder: len(siblings),
		IsTemplate: set.IsTemplate,
	}
	if err := s.store.CreatePitch(ctx, p); err != nil {
		return nil, fmt.Errorf("create pitch: %w", err)
	}
	return p, nil
}

// Update applies partial updates. The parent set is immutable.
func (s *PitchService) Update(ctx context.Context, id string, req pitch.UpdateRequest) (*pitch.Pitch, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetPitch(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Summary != nil {
		p.Summary = *req.Summary
	}
	if err := s.store.UpdatePitch(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetApproval records or clears pitch approval. Approving stamps the acting
// user and time; revoking clears both.
func (s *PitchService) SetApproval(ctx context.Context, id string, approved bool) (*pitch.Pitch, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	p, err := s.store.GetPitch(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsApproved = approved
	if approved {
		now := time.Now().UTC()
		p.ApprovedBy = actorID(ctx)
		p.ApprovedAt = &now
	} else {
		p.ApprovedBy = ""
		p.ApprovedAt = nil
	}
	if err := s.store.UpdatePitch(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete soft-deletes a pitch. Its requirements stay on the set; the set's
// rollup is refreshed since the pitch's own percentage no longer exists.
func (s *PitchService) Delete(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	p, err := s.store.GetPitch(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeletePitch(ctx, id, actorID(ctx)); err != nil {
		return err
	}
	if s.agg != nil {
		return s.agg.RecomputeForSet(ctx, p.SetID)
	}
	return nil
}
