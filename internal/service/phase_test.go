package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/phase"
	"github.com/atelierhq/atelier/internal/domain/project"
)

func seedPhaseChain(m *mockStore) {
	m.projects["p1"] = &project.Project{ID: "p1", Name: "P"}
	// A <- B <- C (C's predecessor is B, B's is A)
	m.phases["A"] = &phase.Phase{ID: "A", ProjectID: "p1", PhaseOrder: 0}
	m.phases["B"] = &phase.Phase{ID: "B", ProjectID: "p1", PhaseOrder: 1, PredecessorID: "A"}
	m.phases["C"] = &phase.Phase{ID: "C", ProjectID: "p1", PhaseOrder: 2, PredecessorID: "B"}
}

func TestPhase_CreateAppendsToOrdering(t *testing.T) {
	m := newMockStore()
	seedPhaseChain(m)
	svc := NewPhaseService(m, nil)

	p, err := svc.Create(context.Background(), &phase.CreateRequest{ProjectID: "p1", Name: "Launch"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.PhaseOrder != 3 {
		t.Errorf("order = %d, want 3", p.PhaseOrder)
	}
	if p.DisplayID != "PH-0001" {
		t.Errorf("display id = %q, want PH-0001", p.DisplayID)
	}
}

func TestPhase_PredecessorCycleRejected(t *testing.T) {
	m := newMockStore()
	seedPhaseChain(m)
	svc := NewPhaseService(m, nil)

	// Pointing A's predecessor at C closes A <- B <- C <- A.
	pred := "C"
	_, err := svc.Update(context.Background(), "A", phase.UpdateRequest{PredecessorID: &pred})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for predecessor cycle, got %v", err)
	}
}

func TestPhase_SelfPredecessorRejected(t *testing.T) {
	m := newMockStore()
	seedPhaseChain(m)
	svc := NewPhaseService(m, nil)

	pred := "A"
	_, err := svc.Update(context.Background(), "A", phase.UpdateRequest{PredecessorID: &pred})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for self predecessor, got %v", err)
	}
}

func TestPhase_ForeignPredecessorRejected(t *testing.T) {
	m := newMockStore()
	seedPhaseChain(m)
	m.projects["p2"] = &project.Project{ID: "p2", Name: "Other"}
	m.phases["X"] = &phase.Phase{ID: "X", ProjectID: "p2"}
	svc := NewPhaseService(m, nil)

	pred := "X"
	_, err := svc.Update(context.Background(), "A", phase.UpdateRequest{PredecessorID: &pred})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for cross-project predecessor, got %v", err)
	}
}

func TestPhase_ClearPredecessor(t *testing.T) {
	m := newMockStore()
	seedPhaseChain(m)
	svc := NewPhaseService(m, nil)

	empty := ""
	p, err := svc.Update(context.Background(), "C", phase.UpdateRequest{PredecessorID: &empty})
	if err != nil {
		t.Fatalf("clear predecessor: %v", err)
	}
	if p.PredecessorID != "" {
		t.Errorf("predecessor = %q, want cleared", p.PredecessorID)
	}
}

func TestPhase_ValidPredecessorMove(t *testing.T) {
	m := newMockStore()
	seedPhaseChain(m)
	svc := NewPhaseService(m, nil)

	// C may point straight at A; no loop arises.
	pred := "A"
	p, err := svc.Update(context.Background(), "C", phase.UpdateRequest{PredecessorID: &pred})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.PredecessorID != "A" {
		t.Errorf("predecessor = %q, want A", p.PredecessorID)
	}
}

func TestPhase_CreateRefreshesProject(t *testing.T) {
	m := newMockStore()
	m.projects["p1"] = &project.Project{ID: "p1", Name: "P", CompletionPct: 50}
	m.phases["ph1"] = &phase.Phase{ID: "ph1", ProjectID: "p1", CompletionPct: 50}
	svc := NewPhaseService(m, NewAggregationService(m, false))

	if _, err := svc.Create(context.Background(), &phase.CreateRequest{ProjectID: "p1", Name: "QA"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// mean(50, 0): the empty phase counts from the moment it exists.
	if got := m.projects["p1"].CompletionPct; got != 25 {
		t.Errorf("project pct = %d, want 25 after adding an empty phase", got)
	}
}

func TestPhase_DeleteRefreshesProject(t *testing.T) {
	m := newMockStore()
	m.projects["p1"] = &project.Project{ID: "p1", Name: "P", CompletionPct: 50}
	m.phases["ph1"] = &phase.Phase{ID: "ph1", ProjectID: "p1", CompletionPct: 100}
	m.phases["ph2"] = &phase.Phase{ID: "ph2", ProjectID: "p1", CompletionPct: 0}
	svc := NewPhaseService(m, NewAggregationService(m, false))

	if err := svc.Delete(context.Background(), "ph2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := m.projects["p1"].CompletionPct; got != 100 {
		t.Errorf("project pct = %d, want 100 after deleting the empty phase", got)
	}
}
