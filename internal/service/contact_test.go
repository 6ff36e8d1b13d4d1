package service

import (
	"context"
	"testing"

	"github.com/atelierhq/atelier/internal/domain/client"
)

func seedClientWithContacts(m *mockStore) {
	m.clients["c1"] = &client.Client{ID: "c1", Name: "Acme"}
	m.contacts["ct1"] = &client.Contact{ID: "ct1", FirstName: "Ada", LastName: "L"}
	m.contacts["ct2"] = &client.Contact{ID: "ct2", FirstName: "Grace", LastName: "H"}
	m.contacts["ct3"] = &client.Contact{ID: "ct3", FirstName: "Edsger", LastName: "D"}
}

func primaryOf(t *testing.T, m *mockStore, clientID string) string {
	t.Helper()
	links, err := m.ListClientContacts(context.Background(), clientID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	primary := ""
	for _, l := range links {
		if l.IsPrimary {
			if primary != "" {
				t.Fatalf("two primary contacts: %s and %s", primary, l.Contact.ID)
			}
			primary = l.Contact.ID
		}
	}
	return primary
}

func TestContact_LinkPrimaryDemotesPrevious(t *testing.T) {
	m := newMockStore()
	seedClientWithContacts(m)
	svc := NewContactService(m)
	ctx := context.Background()

	if err := svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct1", IsPrimary: true}); err != nil {
		t.Fatalf("link ct1: %v", err)
	}
	if err := svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct2", IsPrimary: true}); err != nil {
		t.Fatalf("link ct2: %v", err)
	}

	if got := primaryOf(t, m, "c1"); got != "ct2" {
		t.Errorf("primary = %q, want ct2", got)
	}
}

func TestContact_SetPrimarySwitchesAtomically(t *testing.T) {
	m := newMockStore()
	seedClientWithContacts(m)
	svc := NewContactService(m)
	ctx := context.Background()

	if err := svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct1", IsPrimary: true}); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct2"}); err != nil {
		t.Fatalf("link: %v", err)
	}

	if err := svc.SetPrimary(ctx, "c1", "ct2"); err != nil {
		t.Fatalf("set primary: %v", err)
	}
	if got := primaryOf(t, m, "c1"); got != "ct2" {
		t.Errorf("primary = %q, want ct2", got)
	}
}

func TestContact_SetPrimaryUnlinkedContact(t *testing.T) {
	m := newMockStore()
	seedClientWithContacts(m)
	svc := NewContactService(m)

	if err := svc.SetPrimary(context.Background(), "c1", "ct3"); err == nil {
		t.Fatal("expected error promoting a contact that is not linked")
	}
}

func TestContact_UnlinkPrimaryLeavesNone(t *testing.T) {
	m := newMockStore()
	seedClientWithContacts(m)
	svc := NewContactService(m)
	ctx := context.Background()

	_ = svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct1", IsPrimary: true})
	_ = svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct2"})

	if err := svc.Unlink(ctx, "c1", "ct1", false); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if got := primaryOf(t, m, "c1"); got != "" {
		t.Errorf("primary = %q, want none", got)
	}
}

func TestContact_UnlinkPrimaryPromotesNext(t *testing.T) {
	m := newMockStore()
	seedClientWithContacts(m)
	svc := NewContactService(m)
	ctx := context.Background()

	_ = svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct1", IsPrimary: true})
	_ = svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct2"})

	if err := svc.Unlink(ctx, "c1", "ct1", true); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if got := primaryOf(t, m, "c1"); got != "ct2" {
		t.Errorf("primary = %q, want promoted ct2", got)
	}
}

func TestContact_UpdateRelationshipTouchesJoinOnly(t *testing.T) {
	m := newMockStore()
	seedClientWithContacts(m)
	svc := NewContactService(m)
	ctx := context.Background()

	_ = svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct1", Role: "billing"})

	role := "technical"
	if err := svc.UpdateRelationship(ctx, "c1", "ct1", client.RelationshipUpdateRequest{Role: &role}); err != nil {
		t.Fatalf("update relationship: %v", err)
	}

	links, _ := m.ListClientContacts(ctx, "c1")
	if links[0].Role != "technical" {
		t.Errorf("role = %q, want technical", links[0].Role)
	}
	if m.contacts["ct1"].FirstName != "Ada" {
		t.Error("global contact record must not change on relationship update")
	}
}

func TestContact_ClearPrimaryViaRelationship(t *testing.T) {
	m := newMockStore()
	seedClientWithContacts(m)
	svc := NewContactService(m)
	ctx := context.Background()

	_ = svc.Link(ctx, "c1", client.LinkRequest{ContactID: "ct1", IsPrimary: true})

	off := false
	if err := svc.UpdateRelationship(ctx, "c1", "ct1", client.RelationshipUpdateRequest{IsPrimary: &off}); err != nil {
		t.Fatalf("clear primary: %v", err)
	}
	if got := primaryOf(t, m, "c1"); got != "" {
		t.Errorf("primary = %q, want none", got)
	}
}

func TestContact_CreateAssignsDisplayID(t *testing.T) {
	m := newMockStore()
	svc := NewContactService(m)

	c, err := svc.Create(context.Background(), &client.ContactCreateRequest{FirstName: "Ada", LastName: "L"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.DisplayID != "CT-0001" {
		t.Errorf("display id = %q, want CT-0001", c.DisplayID)
	}
}

func TestContact_LeadPrimarySingle(t *testing.T) {
	m := newMockStore()
	seedClientWithContacts(m)
	seedLead(m, "l1")
	svc := NewContactService(m)
	ctx := context.Background()

	if err := svc.LinkLead(ctx, "l1", "ct1", true, false); err != nil {
		t.Fatalf("link lead contact: %v", err)
	}
	if err := svc.LinkLead(ctx, "l1", "ct2", true, true); err != nil {
		t.Fatalf("link lead contact: %v", err)
	}

	links, _ := m.ListLeadContacts(ctx, "l1")
	primaries := 0
	for _, l := range links {
		if l.IsPrimary {
			primaries++
			if l.ContactID != "ct2" {
				t.Errorf("primary = %q, want ct2", l.ContactID)
			}
		}
	}
	if primaries != 1 {
		t.Errorf("primary count = %d, want 1", primaries)
	}
}
