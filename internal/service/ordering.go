package service

import (
	"context"
	"errors"

	atotel "github.com/atelierhq/atelier/internal/adapter/otel"
	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/requirement"
	"github.com/atelierhq/atelier/internal/domain/workset"
	"github.com/atelierhq/atelier/internal/port/database"
)

// Scope names an orderable sibling group.
type Scope string

const (
	ScopePhase       Scope = "phase"
	ScopeSet         Scope = "set"
	ScopePitch       Scope = "pitch"
	ScopeRequirement Scope = "requirement"
)

// OrderingService rewrites sibling order columns to a dense 0-based
// sequence. Writes are applied one row at a time, in the requested order, so
// a mid-sequence failure leaves a recognizable prefix applied and is
// reported as a partial failure rather than silently re-numbered.
type OrderingService struct {
	store   database.Store
	metrics *atotel.Metrics
}

// NewOrderingService creates a new OrderingService.
func NewOrderingService(store database.Store) *OrderingService {
	return &OrderingService{store: store}
}

// SetMetrics attaches optional metric instruments.
func (s *OrderingService) SetMetrics(m *atotel.Metrics) { s.metrics = m }

// Reorder assigns order 0..n-1 to orderedIDs within the parent. The id list
// must be exactly the parent's current children, each exactly once. On a
// mid-sequence write failure the returned error is a *domain.PartialFailure
// carrying the ids that were re-numbered and the ids that were not.
func (s *OrderingService) Reorder(ctx context.Context, scope Scope, parentID string, orderedIDs []string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	ctx, span := atotel.StartReorderSpan(ctx, string(scope), len(orderedIDs))
	defer span.End()

	current, update, err := s.resolve(ctx, scope, parentID)
	if err != nil {
		return err
	}
	if err := matchSiblings(current, orderedIDs); err != nil {
		return err
	}

	for i, id := range orderedIDs {
		if err := update(ctx, id, i); err != nil {
			if s.metrics != nil {
				s.metrics.ReorderPartialFails.Add(ctx, 1)
			}
			return &domain.PartialFailure{
				Op:        "reorder " + string(scope),
				Succeeded: orderedIDs[:i],
				Failed:    orderedIDs[i:],
				Err:       err,
			}
		}
	}
	return nil
}

// resolve loads the parent's current child ids and picks the per-scope order
// writer.
func (s *OrderingService) resolve(ctx context.Context, scope Scope, parentID string) ([]string, func(context.Context, string, int) error, error) {
	switch scope {
	case ScopePhase:
		phases, err := s.store.ListPhases(ctx, parentID)
		if err != nil {
			return nil, nil, err
		}
		ids := make([]string, len(phases))
		for i := range phases {
			ids[i] = phases[i].ID
		}
		return ids, s.store.UpdatePhaseOrder, nil
	case ScopeSet:
		filter, err := s.setFilter(ctx, parentID)
		if err != nil {
			return nil, nil, err
		}
		sets, err := s.store.ListSets(ctx, filter)
		if err != nil {
			return nil, nil, err
		}
		ids := make([]string, len(sets))
		for i := range sets {
			ids[i] = sets[i].ID
		}
		return ids, s.store.UpdateSetOrder, nil
	case ScopePitch:
		pitches, err := s.store.ListPitches(ctx, parentID)
		if err != nil {
			return nil, nil, err
		}
		ids := make([]string, len(pitches))
		for i := range pitches {
			ids[i] = pitches[i].ID
		}
		return ids, s.store.UpdatePitchOrder, nil
	case ScopeRequirement:
		reqs, err := s.store.ListRequirements(ctx, requirement.Filter{SetID: parentID})
		if err != nil {
			return nil, nil, err
		}
		ids := make([]string, len(reqs))
		for i := range reqs {
			ids[i] = reqs[i].ID
		}
		return ids, s.store.UpdateRequirementOrder, nil
	default:
		return nil, nil, domain.Validationf("scope", "invalid value %q", scope)
	}
}

// setFilter maps a set-reorder parent id to its sibling filter. Sets nest
// under a phase, a project, or directly under a client, so the parent kind
// is probed in that order.
func (s *OrderingService) setFilter(ctx context.Context, parentID string) (workset.Filter, error) {
	if _, err := s.store.GetPhase(ctx, parentID); err == nil {
		return workset.Filter{PhaseID: parentID}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return workset.Filter{}, err
	}
	if _, err := s.store.GetProject(ctx, parentID); err == nil {
		return workset.Filter{ProjectID: parentID}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return workset.Filter{}, err
	}
	if _, err := s.store.GetClient(ctx, parentID); err != nil {
		return workset.Filter{}, err
	}
	return workset.Filter{ClientID: parentID}, nil
}

// matchSiblings checks that ordered is a permutation of current.
func matchSiblings(current, ordered []string) error {
	if len(ordered) != len(current) {
		return domain.Validationf("ordered_ids", "expected %d ids, got %d", len(current), len(ordered))
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = true
	}
	dup := make(map[string]bool, len(ordered))
	for _, id := range ordered {
		if !seen[id] {
			return domain.Validationf("ordered_ids", "id %s is not a child of this parent", id)
		}
		if dup[id] {
			return domain.Validationf("ordered_ids", "id %s appears more than once", id)
		}
		dup[id] = true
	}
	return nil
}
