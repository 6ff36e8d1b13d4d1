package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/attachment"
	"github.com/atelierhq/atelier/internal/domain/lead"
)

func seedLead(m *mockStore, id string) {
	m.leads[id] = &lead.Lead{
		ID: id, DisplayID: "LD-0001", CompanyName: "Initech",
		Status: lead.StatusQualified, EstimatedValue: 50000,
	}
}

func TestLead_CreateDefaultsToNew(t *testing.T) {
	m := newMockStore()
	svc := NewLeadService(m, nil)

	l, err := svc.Create(context.Background(), &lead.CreateRequest{CompanyName: "Initech"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Status != lead.StatusNew {
		t.Errorf("status = %q, want new", l.Status)
	}
	if l.DisplayID != "LD-0001" {
		t.Errorf("display id = %q, want LD-0001", l.DisplayID)
	}
}

func TestLead_StatusTransitionRules(t *testing.T) {
	m := newMockStore()
	seedLead(m, "l1")
	svc := NewLeadService(m, nil)
	ctx := context.Background()

	// Backward through the open pipeline is fine.
	back := lead.StatusContacted
	if _, err := svc.Update(ctx, "l1", lead.UpdateRequest{Status: &back}); err != nil {
		t.Fatalf("backward move: %v", err)
	}

	// Won is reserved for conversion.
	won := lead.StatusWon
	if _, err := svc.Update(ctx, "l1", lead.UpdateRequest{Status: &won}); err == nil {
		t.Fatal("expected direct move to won to be rejected")
	}

	// Lost is terminal.
	lost := lead.StatusLost
	if _, err := svc.Update(ctx, "l1", lead.UpdateRequest{Status: &lost}); err != nil {
		t.Fatalf("move to lost: %v", err)
	}
	reopen := lead.StatusNew
	_, err := svc.Update(ctx, "l1", lead.UpdateRequest{Status: &reopen})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict reopening a lost lead, got %v", err)
	}
}

func TestLead_ConvertCreatesClient(t *testing.T) {
	m := newMockStore()
	seedLead(m, "l1")
	svc := NewLeadService(m, nil)

	c, err := svc.ConvertToClient(context.Background(), "l1", lead.ConvertOptions{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if c.SourceLeadID != "l1" {
		t.Errorf("source lead = %q, want l1", c.SourceLeadID)
	}
	if m.leads["l1"].Status != lead.StatusWon {
		t.Errorf("lead status = %q, want won", m.leads["l1"].Status)
	}
	if m.leads["l1"].ConvertedToClientID != c.ID {
		t.Error("lead must reference the new client")
	}
	if m.clients[c.ID] == nil {
		t.Fatal("client row missing")
	}
}

func TestLead_ConvertIsIdempotent(t *testing.T) {
	m := newMockStore()
	seedLead(m, "l1")
	svc := NewLeadService(m, nil)
	ctx := context.Background()

	first, err := svc.ConvertToClient(ctx, "l1", lead.ConvertOptions{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	second, err := svc.ConvertToClient(ctx, "l1", lead.ConvertOptions{})
	if err != nil {
		t.Fatalf("second convert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second convert returned client %s, want existing %s", second.ID, first.ID)
	}
	if len(m.clients) != 1 {
		t.Errorf("client count = %d, want 1", len(m.clients))
	}
}

func TestLead_ConvertLostRejected(t *testing.T) {
	m := newMockStore()
	seedLead(m, "l1")
	m.leads["l1"].Status = lead.StatusLost
	svc := NewLeadService(m, nil)

	_, err := svc.ConvertToClient(context.Background(), "l1", lead.ConvertOptions{})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict converting a lost lead, got %v", err)
	}
}

func TestLead_ConvertCopiesContactsAndDocuments(t *testing.T) {
	m := newMockStore()
	seedLead(m, "l1")
	m.leadLinks = append(m.leadLinks, leadLink{leadID: "l1", contactID: "ct1", isPrimary: true})
	m.documents["d1"] = &attachment.Document{
		ID: "d1", EntityType: attachment.EntityLead, EntityID: "l1", FileName: "nda.pdf",
	}
	svc := NewLeadService(m, nil)

	c, err := svc.ConvertToClient(context.Background(), "l1", lead.ConvertOptions{
		CopyContacts: true, CopyDocuments: true,
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	foundLink := false
	for _, l := range m.clientLinks {
		if l.clientID == c.ID && l.contactID == "ct1" && l.isPrimary {
			foundLink = true
		}
	}
	if !foundLink {
		t.Error("primary contact link was not copied to the client")
	}

	docs, _ := m.ListDocuments(context.Background(), attachment.Ref{EntityType: attachment.EntityClient, EntityID: c.ID})
	if len(docs) != 1 {
		t.Errorf("client documents = %d, want 1", len(docs))
	}
}

func TestLead_DeleteConvertedRejected(t *testing.T) {
	m := newMockStore()
	seedLead(m, "l1")
	m.leads["l1"].ConvertedToClientID = "c9"
	svc := NewLeadService(m, nil)

	err := svc.Delete(context.Background(), "l1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict deleting a converted lead, got %v", err)
	}
}
