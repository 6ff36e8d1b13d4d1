package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/client"
	"github.com/atelierhq/atelier/internal/domain/priority"
	"github.com/atelierhq/atelier/internal/domain/project"
	"github.com/atelierhq/atelier/internal/domain/workset"
)

func TestSet_RequiresAParent(t *testing.T) {
	svc := NewSetService(newMockStore(), nil)

	_, err := svc.Create(context.Background(), &workset.CreateRequest{Name: "Orphan"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for missing parent, got %v", err)
	}
}

func TestSet_PhaseRequiresProject(t *testing.T) {
	m := newMockStore()
	m.clients["c1"] = &client.Client{ID: "c1", Name: "Acme"}
	svc := NewSetService(m, nil)

	_, err := svc.Create(context.Background(), &workset.CreateRequest{
		Name: "S", ClientID: "c1", PhaseID: "ph1",
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for phase without project, got %v", err)
	}
}

func TestSet_ClientLevelSet(t *testing.T) {
	m := newMockStore()
	m.clients["c1"] = &client.Client{ID: "c1", Name: "Acme"}
	svc := NewSetService(m, nil)

	s, err := svc.Create(context.Background(), &workset.CreateRequest{Name: "Retainer", ClientID: "c1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ProjectID != "" || s.PhaseID != "" {
		t.Error("client-level set must not gain a project or phase")
	}
	if s.DisplayID != "ST-0001" {
		t.Errorf("display id = %q, want ST-0001", s.DisplayID)
	}
}

func TestSet_PriorityDerived(t *testing.T) {
	m := newMockStore()
	m.clients["c1"] = &client.Client{ID: "c1", Name: "Acme"}
	svc := NewSetService(m, nil)
	ctx := context.Background()

	s, err := svc.Create(ctx, &workset.CreateRequest{
		Name: "S", ClientID: "c1",
		Urgency: priority.UrgencyHigh, Importance: priority.ImportanceHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Priority != 2 {
		t.Errorf("priority = %d, want 2 (high+high)", s.Priority)
	}

	low := priority.UrgencyLow
	s, err = svc.Update(ctx, s.ID, workset.UpdateRequest{Urgency: &low})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Priority != 4 {
		t.Errorf("priority = %d, want 4 (high+low)", s.Priority)
	}
}

func TestSet_DefaultsToMediumMedium(t *testing.T) {
	m := newMockStore()
	m.clients["c1"] = &client.Client{ID: "c1", Name: "Acme"}
	svc := NewSetService(m, nil)

	s, err := svc.Create(context.Background(), &workset.CreateRequest{Name: "S", ClientID: "c1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.Priority != priority.DefaultScore {
		t.Errorf("priority = %d, want %d", s.Priority, priority.DefaultScore)
	}
}

func TestSet_PhaseMustBelongToProject(t *testing.T) {
	m := newMockStore()
	seedHierarchy(m, 0, 0) // p1/ph1/s1
	m.projects["p2"] = &project.Project{ID: "p2", Name: "Other"}
	svc := NewSetService(m, nil)

	_, err := svc.Create(context.Background(), &workset.CreateRequest{
		Name: "S", ProjectID: "p2", PhaseID: "ph1",
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for foreign phase, got %v", err)
	}
}

func TestSet_MoveBetweenPhasesRecomputesBoth(t *testing.T) {
	m := newMockStore()
	_, phaseID, setID := seedHierarchy(m, 2, 2) // set will read 100 once primed
	ph2 := *m.phases[phaseID]
	ph2.ID = "ph2"
	m.phases["ph2"] = &ph2

	agg := NewAggregationService(m, true)
	svc := NewSetService(m, agg)
	ctx := context.Background()

	if err := agg.RecomputeForSet(ctx, setID); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if m.phases[phaseID].CompletionPct != 100 {
		t.Fatalf("phase pct = %d, want 100", m.phases[phaseID].CompletionPct)
	}

	to := "ph2"
	if _, err := svc.Update(ctx, setID, workset.UpdateRequest{PhaseID: &to}); err != nil {
		t.Fatalf("move: %v", err)
	}

	if got := m.phases["ph2"].CompletionPct; got != 100 {
		t.Errorf("target phase pct = %d, want 100", got)
	}
	// The source phase lost its only set; resetWhenEmpty clears it.
	if got := m.phases[phaseID].CompletionPct; got != 0 {
		t.Errorf("source phase pct = %d, want 0", got)
	}
}

func TestSet_CreateUnderPhaseRefreshesPhase(t *testing.T) {
	m := newMockStore()
	projectID, phaseID, setID := seedHierarchy(m, 2, 1) // s1 reads 50 once primed
	agg := NewAggregationService(m, false)
	svc := NewSetService(m, agg)
	ctx := context.Background()

	if err := agg.RecomputeForSet(ctx, setID); err != nil {
		t.Fatalf("prime: %v", err)
	}
	if m.phases[phaseID].CompletionPct != 50 {
		t.Fatalf("phase pct = %d, want 50", m.phases[phaseID].CompletionPct)
	}

	if _, err := svc.Create(ctx, &workset.CreateRequest{
		Name: "Backend", ProjectID: projectID, PhaseID: phaseID,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// mean(50, 0): the empty set counts from the moment it exists.
	if got := m.phases[phaseID].CompletionPct; got != 25 {
		t.Errorf("phase pct = %d, want 25 after adding an empty set", got)
	}
}
