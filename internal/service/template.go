package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	atotel "github.com/atelierhq/atelier/internal/adapter/otel"
	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/phase"
	"github.com/atelierhq/atelier/internal/domain/pitch"
	"github.com/atelierhq/atelier/internal/domain/project"
	"github.com/atelierhq/atelier/internal/domain/requirement"
	"github.com/atelierhq/atelier/internal/domain/workset"
	"github.com/atelierhq/atelier/internal/port/database"
)

// TemplateService is the clone engine: it duplicates a project tree
// (phases, sets, pitches, requirements) depth-first under fresh ids, and
// instantiates projects from templates. Every row written by one clone run
// carries the same batch id, so a mid-run failure can sweep its own debris.
type TemplateService struct {
	store   database.Store
	metrics *atotel.Metrics
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(store database.Store) *TemplateService {
	return &TemplateService{store: store}
}

// SetMetrics attaches optional metric instruments.
func (s *TemplateService) SetMetrics(m *atotel.Metrics) { s.metrics = m }

// Duplicate copies a project and, when IncludeChildren is set, its whole
// subtree. The source may be a live project or a template. Cloned rows get
// fresh ids and display ids; internal references (phase predecessors, set
// phases, requirement pitches) are remapped onto the new ids. A non-template
// clone starts over: requirement statuses reset to open and all completion
// percentages to zero. On failure the already-written rows are deleted by
// batch id, best-effort, and the error reports what was and was not copied.
func (s *TemplateService) Duplicate(ctx context.Context, sourceID string, opts project.DuplicateOptions) (*project.Project, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	batchID := newID()
	ctx, span := atotel.StartCloneSpan(ctx, sourceID, batchID)
	defer span.End()
	start := time.Now()
	if s.metrics != nil {
		s.metrics.ClonesStarted.Add(ctx, 1)
		defer func() {
			s.metrics.CloneSeconds.Record(ctx, time.Since(start).Seconds())
		}()
	}

	src, err := s.store.GetProject(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	clientID := src.ClientID
	if opts.NewClientID != "" {
		if _, err := s.store.GetClient(ctx, opts.NewClientID); err != nil {
			return nil, err
		}
		clientID = opts.NewClientID
	}

	run := &cloneRun{
		svc:     s,
		batchID: batchID,
		opts:    opts,
		idMap:   map[string]string{},
	}
	clone, err := run.copyProject(ctx, src, clientID)
	if err != nil {
		s.rollback(ctx, batchID, sourceID)
		return nil, &domain.PartialFailure{
			Op:        "clone project",
			Succeeded: run.copied,
			Failed:    []string{sourceID},
			Err:       err,
		}
	}
	return clone, nil
}

// CreateFromTemplate instantiates a template as a live project for a client.
// It is Duplicate with the template flag forced off and children always
// included.
func (s *TemplateService) CreateFromTemplate(ctx context.Context, templateID, clientID, name string) (*project.Project, error) {
	tpl, err := s.store.GetProject(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.IsTemplate {
		return nil, domain.Validationf("template_id", "project %s is not a template", templateID)
	}
	return s.Duplicate(ctx, templateID, project.DuplicateOptions{
		NewClientID:     clientID,
		NewName:         name,
		IncludeChildren: true,
		AsTemplate:      false,
	})
}

// rollback sweeps a failed clone run's rows. Cleanup is best-effort: the
// batch rows are inert (no live references point at them), so a failed sweep
// is logged and left for a later retry rather than escalated.
func (s *TemplateService) rollback(ctx context.Context, batchID, sourceID string) {
	if s.metrics != nil {
		s.metrics.ClonesRolledBack.Add(ctx, 1)
	}
	if err := s.store.DeleteCloneBatch(ctx, batchID); err != nil {
		slog.Error("clone cleanup failed, orphaned batch rows remain",
			"batch_id", batchID, "source_id", sourceID, "error", err)
	}
}

// cloneRun holds the state of one Duplicate invocation.
type cloneRun struct {
	svc     *TemplateService
	batchID string
	opts    project.DuplicateOptions
	idMap   map[string]string // source id -> clone id
	copied  []string          // clone ids written so far
}

func (r *cloneRun) copyProject(ctx context.Context, src *project.Project, clientID string) (*project.Project, error) {
	displayID, err := nextDisplayID(ctx, r.svc.store, "project", project.DisplayPrefix)
	if err != nil {
		return nil, err
	}

	name := r.opts.NewName
	if name == "" {
		name = src.Name + " (copy)"
	}

	clone := &project.Project{
		ID:           newID(),
		DisplayID:    displayID,
		ClientID:     clientID,
		Name:         name,
		Description:  src.Description,
		Status:       project.StatusPlanning,
		Health:       project.HealthOnTrack,
		IsTemplate:   r.opts.AsTemplate,
		CloneBatchID: r.batchID,
	}
	if r.opts.AsTemplate {
		clone.Status = src.Status
	}
	if !r.opts.ClearDates {
		clone.StartDate = src.StartDate
		clone.EndDate = src.EndDate
	}
	if !r.opts.ClearAssignments {
		clone.LeadID = src.LeadID
		clone.SecondaryLeadID = src.SecondaryLeadID
		clone.PMID = src.PMID
	}
	if r.opts.AsTemplate {
		clone.CompletionPct = src.CompletionPct
	}

	if err := r.svc.store.CreateProject(ctx, clone); err != nil {
		return nil, fmt.Errorf("copy project %s: %w", src.ID, err)
	}
	r.record(src.ID, clone.ID)

	if !r.opts.IncludeChildren {
		return clone, nil
	}

	if err := r.copyPhases(ctx, src.ID, clone.ID); err != nil {
		return nil, err
	}
	if err := r.copySets(ctx, src.ID, clone.ID); err != nil {
		return nil, err
	}
	return clone, nil
}

func (r *cloneRun) copyPhases(ctx context.Context, srcProjectID, cloneProjectID string) error {
	phases, err := r.svc.store.ListPhases(ctx, srcProjectID)
	if err != nil {
		return fmt.Errorf("list phases of %s: %w", srcProjectID, err)
	}

	// Two passes: create every phase first, then stitch predecessor links,
	// since a predecessor may appear later in the ordering.
	for i := range phases {
		src := &phases[i]
		displayID, err := nextDisplayID(ctx, r.svc.store, "phase", phase.DisplayPrefix)
		if err != nil {
			return err
		}
		clone := &phase.Phase{
			ID:           newID(),
			DisplayID:    displayID,
			ProjectID:    cloneProjectID,
			Name:         src.Name,
			Description:  src.Description,
			PhaseOrder:   src.PhaseOrder,
			IsTemplate:   r.opts.AsTemplate,
			CloneBatchID: r.batchID,
		}
		if !r.opts.ClearDates {
			clone.StartDate = src.StartDate
			clone.EndDate = src.EndDate
		}
		if r.opts.AsTemplate {
			clone.CompletionPct = src.CompletionPct
		}
		if err := r.svc.store.CreatePhase(ctx, clone); err != nil {
			return fmt.Errorf("copy phase %s: %w", src.ID, err)
		}
		r.record(src.ID, clone.ID)
	}

	for i := range phases {
		src := &phases[i]
		if src.PredecessorID == "" {
			continue
		}
		mapped, ok := r.idMap[src.PredecessorID]
		if !ok {
			continue
		}
		clone, err := r.svc.store.GetPhase(ctx, r.idMap[src.ID])
		if err != nil {
			return fmt.Errorf("stitch phase %s: %w", src.ID, err)
		}
		clone.PredecessorID = mapped
		if err := r.svc.store.UpdatePhase(ctx, clone); err != nil {
			return fmt.Errorf("stitch phase %s: %w", src.ID, err)
		}
	}
	return nil
}

func (r *cloneRun) copySets(ctx context.Context, srcProjectID, cloneProjectID string) error {
	sets, err := r.svc.store.ListSets(ctx, workset.Filter{ProjectID: srcProjectID, IncludeTemplates: true})
	if err != nil {
		return fmt.Errorf("list sets of %s: %w", srcProjectID, err)
	}

	for i := range sets {
		src := &sets[i]
		displayID, err := nextDisplayID(ctx, r.svc.store, "set", workset.DisplayPrefix)
		if err != nil {
			return err
		}
		clone := &workset.Set{
			ID:                 newID(),
			DisplayID:          displayID,
			ClientID:           src.ClientID,
			ProjectID:          cloneProjectID,
			PhaseID:            r.idMap[src.PhaseID],
			Name:               src.Name,
			Description:        src.Description,
			SetOrder:           src.SetOrder,
			Urgency:            src.Urgency,
			Importance:         src.Importance,
			Priority:           src.Priority,
			ShowInClientPortal: src.ShowInClientPortal,
			IsTemplate:         r.opts.AsTemplate,
			CloneBatchID:       r.batchID,
		}
		if r.opts.NewClientID != "" && src.ClientID != "" {
			clone.ClientID = r.opts.NewClientID
		}
		if r.opts.AsTemplate {
			clone.CompletionPct = src.CompletionPct
		}
		if err := r.svc.store.CreateSet(ctx, clone); err != nil {
			return fmt.Errorf("copy set %s: %w", src.ID, err)
		}
		r.record(src.ID, clone.ID)

		if err := r.copyPitches(ctx, src.ID, clone.ID); err != nil {
			return err
		}
		if err := r.copyRequirements(ctx, src.ID, clone.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *cloneRun) copyPitches(ctx context.Context, srcSetID, cloneSetID string) error {
	pitches, err := r.svc.store.ListPitches(ctx, srcSetID)
	if err != nil {
		return fmt.Errorf("list pitches of %s: %w", srcSetID, err)
	}
	for i := range pitches {
		src := &pitches[i]
		displayID, err := nextDisplayID(ctx, r.svc.store, "pitch", pitch.DisplayPrefix)
		if err != nil {
			return err
		}
		clone := &pitch.Pitch{
			ID:           newID(),
			DisplayID:    displayID,
			SetID:        cloneSetID,
			Name:         src.Name,
			Summary:      src.Summary,
			PitchOrder:   src.PitchOrder,
			IsTemplate:   r.opts.AsTemplate,
			CloneBatchID: r.batchID,
		}
		if r.opts.AsTemplate {
			clone.CompletionPct = src.CompletionPct
		}
		if err := r.svc.store.CreatePitch(ctx, clone); err != nil {
			return fmt.Errorf("copy pitch %s: %w", src.ID, err)
		}
		r.record(src.ID, clone.ID)
	}
	return nil
}

func (r *cloneRun) copyRequirements(ctx context.Context, srcSetID, cloneSetID string) error {
	reqs, err := r.svc.store.ListRequirements(ctx, requirement.Filter{SetID: srcSetID, IncludeTemplates: true})
	if err != nil {
		return fmt.Errorf("list requirements of %s: %w", srcSetID, err)
	}
	for i := range reqs {
		src := &reqs[i]
		displayID, err := nextDisplayID(ctx, r.svc.store, "requirement", requirement.DisplayPrefix)
		if err != nil {
			return err
		}
		clone := &requirement.Requirement{
			ID:                 newID(),
			DisplayID:          displayID,
			SetID:              cloneSetID,
			PitchID:            r.idMap[src.PitchID],
			Title:              src.Title,
			Details:            src.Details,
			Status:             requirement.StatusOpen,
			ReqOrder:           src.ReqOrder,
			Urgency:            src.Urgency,
			Importance:         src.Importance,
			Priority:           src.Priority,
			RequiresReview:     src.RequiresReview,
			IsTask:             src.IsTask,
			ShowInClientPortal: src.ShowInClientPortal,
			IsTemplate:         r.opts.AsTemplate,
			CloneBatchID:       r.batchID,
		}
		if r.opts.AsTemplate {
			clone.Status = src.Status
		}
		if clone.RequiresReview {
			clone.ReviewStatus = requirement.ReviewPending
		}
		if !r.opts.ClearDates {
			clone.DueDate = src.DueDate
		}
		if !r.opts.ClearAssignments {
			clone.AssigneeID = src.AssigneeID
		}
		if err := r.svc.store.CreateRequirement(ctx, clone); err != nil {
			return fmt.Errorf("copy requirement %s: %w", src.ID, err)
		}
		r.record(src.ID, clone.ID)
	}
	return nil
}

func (r *cloneRun) record(srcID, cloneID string) {
	r.idMap[srcID] = cloneID
	r.copied = append(r.copied, cloneID)
}
