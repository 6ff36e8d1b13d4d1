package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	atotel "github.com/atelierhq/atelier/internal/adapter/otel"
	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/phase"
	"github.com/atelierhq/atelier/internal/domain/requirement"
	"github.com/atelierhq/atelier/internal/domain/workset"
	"github.com/atelierhq/atelier/internal/port/database"
)

// Level names one tier of the completion hierarchy.
type Level string

const (
	LevelPitch   Level = "pitch"
	LevelSet     Level = "set"
	LevelPhase   Level = "phase"
	LevelProject Level = "project"
)

// AggregationService derives completion percentages bottom-up. Leaf levels
// (set, pitch) count completed requirements; structural levels (phase,
// project) average child percentages. The asymmetry is deliberate: a phase
// with a nearly-done small set and a barely-started large set reads 50%.
type AggregationService struct {
	store          database.Store
	resetWhenEmpty bool
	metrics        *atotel.Metrics
}

// NewAggregationService creates an AggregationService. resetWhenEmpty
// selects what happens to a parent whose last child disappears: reset to
// zero, or keep the stale value.
func NewAggregationService(store database.Store, resetWhenEmpty bool) *AggregationService {
	return &AggregationService{store: store, resetWhenEmpty: resetWhenEmpty}
}

// SetMetrics attaches optional metric instruments.
func (s *AggregationService) SetMetrics(m *atotel.Metrics) { s.metrics = m }

// RecomputeCompletion dispatches a recompute walk starting at the given
// level. Phase and project recomputes do not re-derive their children; they
// re-average whatever the children currently hold.
func (s *AggregationService) RecomputeCompletion(ctx context.Context, level Level, id string) error {
	switch level {
	case LevelSet:
		return s.RecomputeForSet(ctx, id)
	case LevelPitch:
		return s.RecomputeForPitch(ctx, id)
	case LevelPhase:
		return s.recomputePhase(ctx, id)
	case LevelProject:
		return s.recomputeProject(ctx, id)
	default:
		return domain.Validationf("level", "invalid value %q", level)
	}
}

// RecomputeForSet recomputes the set's percentage from its requirements and
// walks the result up through phase and project. The walk is bounded by the
// hierarchy depth; a missing parent stops it with a warning rather than an
// error, since a recompute racing a delete is not a caller mistake. The
// whole operation is idempotent and safe to retry.
func (s *AggregationService) RecomputeForSet(ctx context.Context, setID string) error {
	ctx, span := atotel.StartAggregationSpan(ctx, setID)
	defer span.End()
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.AggregationRuns.Add(ctx, 1)
			s.metrics.AggregationSeconds.Record(ctx, time.Since(start).Seconds())
		}
	}()

	st, err := s.store.GetSet(ctx, setID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("aggregation: set vanished mid-walk", "set_id", setID)
			return nil
		}
		return fmt.Errorf("recompute set %s: %w", setID, err)
	}

	reqs, err := s.store.ListRequirements(ctx, requirement.Filter{SetID: setID})
	if err != nil {
		return fmt.Errorf("recompute set %s: %w", setID, err)
	}

	pct, ok := leafPct(reqs)
	if ok || s.resetWhenEmpty {
		if err := s.store.UpdateSetCompletion(ctx, setID, pct); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("recompute set %s: %w", setID, err)
		}
	}

	if st.PhaseID == "" {
		return nil
	}
	return s.recomputePhase(ctx, st.PhaseID)
}

// RecomputeForPitch recomputes a single pitch from its requirements. Pitch
// percentages feed progress display only; the set walk runs separately.
func (s *AggregationService) RecomputeForPitch(ctx context.Context, pitchID string) error {
	reqs, err := s.store.ListRequirements(ctx, requirement.Filter{PitchID: pitchID})
	if err != nil {
		return fmt.Errorf("recompute pitch %s: %w", pitchID, err)
	}
	pct, ok := leafPct(reqs)
	if !ok && !s.resetWhenEmpty {
		return nil
	}
	if err := s.store.UpdatePitchCompletion(ctx, pitchID, pct); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("aggregation: pitch vanished mid-walk", "pitch_id", pitchID)
			return nil
		}
		return fmt.Errorf("recompute pitch %s: %w", pitchID, err)
	}
	return nil
}

func (s *AggregationService) recomputePhase(ctx context.Context, phaseID string) error {
	ph, err := s.store.GetPhase(ctx, phaseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("aggregation: phase vanished mid-walk", "phase_id", phaseID)
			return nil
		}
		return fmt.Errorf("recompute phase %s: %w", phaseID, err)
	}

	sets, err := s.store.ListSets(ctx, workset.Filter{PhaseID: phaseID})
	if err != nil {
		return fmt.Errorf("recompute phase %s: %w", phaseID, err)
	}

	pct, ok := meanPct(setPcts(sets))
	if ok || s.resetWhenEmpty {
		if err := s.store.UpdatePhaseCompletion(ctx, phaseID, pct); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("recompute phase %s: %w", phaseID, err)
		}
	}

	return s.recomputeProject(ctx, ph.ProjectID)
}

func (s *AggregationService) recomputeProject(ctx context.Context, projectID string) error {
	phases, err := s.store.ListPhases(ctx, projectID)
	if err != nil {
		return fmt.Errorf("recompute project %s: %w", projectID, err)
	}

	pct, ok := meanPct(phasePcts(phases))
	if !ok && !s.resetWhenEmpty {
		return nil
	}
	if err := s.store.UpdateProjectCompletion(ctx, projectID, pct); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("aggregation: project vanished mid-walk", "project_id", projectID)
			return nil
		}
		return fmt.Errorf("recompute project %s: %w", projectID, err)
	}
	return nil
}

// leafPct computes round(100*completed/total) over requirements. ok is false
// when there are no requirements to count.
func leafPct(reqs []requirement.Requirement) (pct int, ok bool) {
	if len(reqs) == 0 {
		return 0, false
	}
	done := 0
	for i := range reqs {
		if reqs[i].Done() {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(reqs)))), true
}

// meanPct computes round(mean(child percentages)). ok is false for an empty
// child list.
func meanPct(pcts []int) (pct int, ok bool) {
	if len(pcts) == 0 {
		return 0, false
	}
	sum := 0
	for _, p := range pcts {
		sum += p
	}
	return int(math.Round(float64(sum) / float64(len(pcts)))), true
}

func setPcts(sets []workset.Set) []int {
	out := make([]int, len(sets))
	for i := range sets {
		out[i] = sets[i].CompletionPct
	}
	return out
}

func phasePcts(phases []phase.Phase) []int {
	out := make([]int, len(phases))
	for i := range phases {
		out[i] = phases[i].CompletionPct
	}
	return out
}
