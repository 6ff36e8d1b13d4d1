package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/attachment"
	"github.com/atelierhq/atelier/internal/domain/client"
	"github.com/atelierhq/atelier/internal/domain/identity"
	"github.com/atelierhq/atelier/internal/domain/lead"
	"github.com/atelierhq/atelier/internal/domain/phase"
	"github.com/atelierhq/atelier/internal/domain/pitch"
	"github.com/atelierhq/atelier/internal/domain/project"
	"github.com/atelierhq/atelier/internal/domain/requirement"
	"github.com/atelierhq/atelier/internal/domain/tenant"
	"github.com/atelierhq/atelier/internal/domain/workset"
	"github.com/atelierhq/atelier/internal/port/database"
)

// mockStore is a shared in-memory Store for service tests. failOn maps an
// operation key (method name, optionally "Method:id") to an error, so tests
// can fail a single step of a multi-step operation.
type mockStore struct {
	mu sync.Mutex

	tenants      map[string]*tenant.Tenant
	users        map[string]*identity.User
	memberships  []identity.Membership
	apiKeys      map[string]*identity.APIKey
	clients      map[string]*client.Client
	contacts     map[string]*client.Contact
	clientLinks  []clientLink
	leadLinks    []leadLink
	projects     map[string]*project.Project
	phases       map[string]*phase.Phase
	sets         map[string]*workset.Set
	pitches      map[string]*pitch.Pitch
	requirements map[string]*requirement.Requirement
	leads        map[string]*lead.Lead
	documents    map[string]*attachment.Document
	discussions  map[string]*attachment.Discussion
	notes        map[string]*attachment.Note
	seq          map[string]int64

	failOn map[string]error
}

type clientLink struct {
	clientID  string
	contactID string
	role      string
	isPrimary bool
}

type leadLink struct {
	leadID          string
	contactID       string
	isPrimary       bool
	isDecisionMaker bool
}

var _ database.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		tenants:      map[string]*tenant.Tenant{},
		users:        map[string]*identity.User{},
		apiKeys:      map[string]*identity.APIKey{},
		clients:      map[string]*client.Client{},
		contacts:     map[string]*client.Contact{},
		projects:     map[string]*project.Project{},
		phases:       map[string]*phase.Phase{},
		sets:         map[string]*workset.Set{},
		pitches:      map[string]*pitch.Pitch{},
		requirements: map[string]*requirement.Requirement{},
		leads:        map[string]*lead.Lead{},
		documents:    map[string]*attachment.Document{},
		discussions:  map[string]*attachment.Discussion{},
		notes:        map[string]*attachment.Note{},
		seq:          map[string]int64{},
		failOn:       map[string]error{},
	}
}

func (m *mockStore) fail(keys ...string) error {
	for _, k := range keys {
		if err, ok := m.failOn[k]; ok {
			return err
		}
	}
	return nil
}

// --- tenants ---

func (m *mockStore) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &tenant.Tenant{ID: "tenant-" + req.Slug, Name: req.Name, Slug: req.Slug,
		Status: tenant.StatusActive, Plan: req.Plan, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.tenants[t.ID] = t
	return t, nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tenant.Tenant
	for _, t := range m.tenants {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockStore) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	m.tenants[t.ID] = &cp
	return nil
}

// --- identity ---

func (m *mockStore) CreateUser(_ context.Context, u *identity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.users {
		if ex.Email == u.Email {
			return domain.ErrConflict
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListUsers(_ context.Context) ([]identity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []identity.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockStore) CreateMembership(_ context.Context, mem *identity.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberships = append(m.memberships, *mem)
	return nil
}

func (m *mockStore) ListMemberships(_ context.Context, userID string) ([]identity.Membership, error) {
	if err := m.fail("ListMemberships"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []identity.Membership
	for _, mem := range m.memberships {
		if mem.UserID == userID {
			out = append(out, mem)
		}
	}
	return out, nil
}

func (m *mockStore) CreateAPIKey(_ context.Context, k *identity.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *k
	m.apiKeys[k.Prefix] = &cp
	return nil
}

func (m *mockStore) GetAPIKeyByPrefix(_ context.Context, prefix string) (*identity.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.apiKeys[prefix]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *mockStore) TouchAPIKey(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.apiKeys {
		if k.ID == id {
			now := time.Now()
			k.LastUsedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- clients ---

func (m *mockStore) ListClients(_ context.Context) ([]client.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []client.Client
	for _, c := range m.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockStore) GetClient(_ context.Context, id string) (*client.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) CreateClient(_ context.Context, c *client.Client) error {
	if err := m.fail("CreateClient"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *mockStore) UpdateClient(_ context.Context, c *client.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteClient(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

// --- contacts ---

func (m *mockStore) ListContacts(_ context.Context) ([]client.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []client.Contact
	for _, c := range m.contacts {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockStore) GetContact(_ context.Context, id string) (*client.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) CreateContact(_ context.Context, c *client.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *mockStore) UpdateContact(_ context.Context, c *client.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteContact(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func (m *mockStore) ListClientContacts(_ context.Context, clientID string) ([]client.ContactLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []client.ContactLink
	for _, l := range m.clientLinks {
		if l.clientID != clientID {
			continue
		}
		c := m.contacts[l.contactID]
		if c == nil {
			continue
		}
		out = append(out, client.ContactLink{Contact: *c, Role: l.role, IsPrimary: l.isPrimary})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsPrimary && !out[j].IsPrimary })
	return out, nil
}

func (m *mockStore) LinkContact(_ context.Context, clientID, contactID, role string, isPrimary bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.clientLinks {
		if l.clientID == clientID && l.contactID == contactID {
			return domain.ErrConflict
		}
	}
	if isPrimary {
		for i := range m.clientLinks {
			if m.clientLinks[i].clientID == clientID {
				m.clientLinks[i].isPrimary = false
			}
		}
	}
	m.clientLinks = append(m.clientLinks, clientLink{clientID, contactID, role, isPrimary})
	return nil
}

func (m *mockStore) UnlinkContact(_ context.Context, clientID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.clientLinks {
		if l.clientID == clientID && l.contactID == contactID {
			m.clientLinks = append(m.clientLinks[:i], m.clientLinks[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) SetPrimaryContact(_ context.Context, clientID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.clientLinks {
		if m.clientLinks[i].clientID == clientID {
			m.clientLinks[i].isPrimary = m.clientLinks[i].contactID == contactID
			if m.clientLinks[i].contactID == contactID {
				found = true
			}
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	return nil
}

func (m *mockStore) ClearPrimaryContact(_ context.Context, clientID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clientLinks {
		if m.clientLinks[i].clientID == clientID && m.clientLinks[i].contactID == contactID {
			m.clientLinks[i].isPrimary = false
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) UpdateClientContactRole(_ context.Context, clientID, contactID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clientLinks {
		if m.clientLinks[i].clientID == clientID && m.clientLinks[i].contactID == contactID {
			m.clientLinks[i].role = role
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListLeadContacts(_ context.Context, leadID string) ([]lead.ContactLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []lead.ContactLink
	for _, l := range m.leadLinks {
		if l.leadID == leadID {
			out = append(out, lead.ContactLink{
				ContactID: l.contactID, LeadID: l.leadID,
				IsPrimary: l.isPrimary, IsDecisionMaker: l.isDecisionMaker,
			})
		}
	}
	return out, nil
}

func (m *mockStore) LinkLeadContact(_ context.Context, leadID, contactID string, isPrimary, isDecisionMaker bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if isPrimary {
		for i := range m.leadLinks {
			if m.leadLinks[i].leadID == leadID {
				m.leadLinks[i].isPrimary = false
			}
		}
	}
	m.leadLinks = append(m.leadLinks, leadLink{leadID, contactID, isPrimary, isDecisionMaker})
	return nil
}

func (m *mockStore) UnlinkLeadContact(_ context.Context, leadID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.leadLinks {
		if l.leadID == leadID && l.contactID == contactID {
			m.leadLinks = append(m.leadLinks[:i], m.leadLinks[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) SetLeadPrimaryContact(_ context.Context, leadID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.leadLinks {
		if m.leadLinks[i].leadID == leadID {
			m.leadLinks[i].isPrimary = m.leadLinks[i].contactID == contactID
			if m.leadLinks[i].contactID == contactID {
				found = true
			}
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	return nil
}

// --- projects ---

func (m *mockStore) ListProjects(_ context.Context, clientID string) ([]project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []project.Project
	for _, p := range m.projects {
		if p.IsTemplate {
			continue
		}
		if clientID != "" && p.ClientID != clientID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockStore) ListProjectTemplates(_ context.Context) ([]project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []project.Project
	for _, p := range m.projects {
		if p.IsTemplate {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockStore) GetProject(_ context.Context, id string) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) CreateProject(_ context.Context, p *project.Project) error {
	if err := m.fail("CreateProject"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *mockStore) UpdateProject(_ context.Context, p *project.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteProject(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *mockStore) UpdateProjectCompletion(_ context.Context, id string, pct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.CompletionPct = pct
	return nil
}

// --- phases ---

func (m *mockStore) ListPhases(_ context.Context, projectID string) ([]phase.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []phase.Phase
	for _, p := range m.phases {
		if p.ProjectID == projectID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhaseOrder < out[j].PhaseOrder })
	return out, nil
}

func (m *mockStore) GetPhase(_ context.Context, id string) (*phase.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.phases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) CreatePhase(_ context.Context, p *phase.Phase) error {
	if err := m.fail("CreatePhase"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.phases[p.ID] = &cp
	return nil
}

func (m *mockStore) UpdatePhase(_ context.Context, p *phase.Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.phases[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.phases[p.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeletePhase(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.phases[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.phases, id)
	return nil
}

func (m *mockStore) UpdatePhaseOrder(_ context.Context, id string, order int) error {
	if err := m.fail("UpdatePhaseOrder", "UpdatePhaseOrder:"+id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.phases[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.PhaseOrder = order
	return nil
}

func (m *mockStore) UpdatePhaseCompletion(_ context.Context, id string, pct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.phases[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.CompletionPct = pct
	return nil
}

// --- sets ---

func (m *mockStore) ListSets(_ context.Context, f workset.Filter) ([]workset.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []workset.Set
	for _, s := range m.sets {
		if s.IsTemplate && !f.IncludeTemplates {
			continue
		}
		if f.ClientID != "" && s.ClientID != f.ClientID {
			continue
		}
		if f.ProjectID != "" && s.ProjectID != f.ProjectID {
			continue
		}
		if f.PhaseID != "" && s.PhaseID != f.PhaseID {
			continue
		}
		if f.PortalOnly && !s.ShowInClientPortal {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SetOrder < out[j].SetOrder })
	return out, nil
}

func (m *mockStore) GetSet(_ context.Context, id string) (*workset.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStore) CreateSet(_ context.Context, s *workset.Set) error {
	if err := m.fail("CreateSet"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sets[s.ID] = &cp
	return nil
}

func (m *mockStore) UpdateSet(_ context.Context, s *workset.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	m.sets[s.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteSet(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sets, id)
	return nil
}

func (m *mockStore) UpdateSetOrder(_ context.Context, id string, order int) error {
	if err := m.fail("UpdateSetOrder", "UpdateSetOrder:"+id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.SetOrder = order
	return nil
}

func (m *mockStore) UpdateSetCompletion(_ context.Context, id string, pct int) error {
	if err := m.fail("UpdateSetCompletion"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sets[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.CompletionPct = pct
	return nil
}

// --- pitches ---

func (m *mockStore) ListPitches(_ context.Context, setID string) ([]pitch.Pitch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []pitch.Pitch
	for _, p := range m.pitches {
		if p.SetID == setID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PitchOrder < out[j].PitchOrder })
	return out, nil
}

func (m *mockStore) GetPitch(_ context.Context, id string) (*pitch.Pitch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pitches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockStore) CreatePitch(_ context.Context, p *pitch.Pitch) error {
	if err := m.fail("CreatePitch"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.pitches[p.ID] = &cp
	return nil
}

func (m *mockStore) UpdatePitch(_ context.Context, p *pitch.Pitch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pitches[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	m.pitches[p.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeletePitch(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pitches[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.pitches, id)
	return nil
}

func (m *mockStore) UpdatePitchOrder(_ context.Context, id string, order int) error {
	if err := m.fail("UpdatePitchOrder", "UpdatePitchOrder:"+id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pitches[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.PitchOrder = order
	return nil
}

func (m *mockStore) UpdatePitchCompletion(_ context.Context, id string, pct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pitches[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.CompletionPct = pct
	return nil
}

// --- requirements ---

func (m *mockStore) ListRequirements(_ context.Context, f requirement.Filter) ([]requirement.Requirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []requirement.Requirement
	for _, r := range m.requirements {
		if r.IsTemplate && !f.IncludeTemplates {
			continue
		}
		if f.SetID != "" && r.SetID != f.SetID {
			continue
		}
		if f.PitchID != "" && r.PitchID != f.PitchID {
			continue
		}
		if f.AssigneeID != "" && r.AssigneeID != f.AssigneeID {
			continue
		}
		if f.TasksOnly && !r.IsTask {
			continue
		}
		if f.PortalOnly && !r.ShowInClientPortal {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReqOrder < out[j].ReqOrder })
	return out, nil
}

func (m *mockStore) GetRequirement(_ context.Context, id string) (*requirement.Requirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requirements[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockStore) CreateRequirement(_ context.Context, r *requirement.Requirement) error {
	if err := m.fail("CreateRequirement"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.requirements[r.ID] = &cp
	return nil
}

func (m *mockStore) UpdateRequirement(_ context.Context, r *requirement.Requirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requirements[r.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *r
	m.requirements[r.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteRequirement(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requirements[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.requirements, id)
	return nil
}

func (m *mockStore) UpdateRequirementOrder(_ context.Context, id string, order int) error {
	if err := m.fail("UpdateRequirementOrder", "UpdateRequirementOrder:"+id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requirements[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.ReqOrder = order
	return nil
}

// --- leads ---

func (m *mockStore) ListLeads(_ context.Context) ([]lead.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []lead.Lead
	for _, l := range m.leads {
		out = append(out, *l)
	}
	return out, nil
}

func (m *mockStore) GetLead(_ context.Context, id string) (*lead.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockStore) CreateLead(_ context.Context, l *lead.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.leads[l.ID] = &cp
	return nil
}

func (m *mockStore) UpdateLead(_ context.Context, l *lead.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[l.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *l
	m.leads[l.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteLead(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func (m *mockStore) ConvertLead(_ context.Context, conv lead.ConversionRecord) error {
	if err := m.fail("ConvertLead"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[conv.Lead.ID]
	if !ok || l.ConvertedToClientID != "" {
		return domain.ErrNotFound
	}
	c := *conv.Client
	m.clients[c.ID] = &c
	l.Status = lead.StatusWon
	l.ConvertedToClientID = c.ID
	conv.Lead.Status = lead.StatusWon
	conv.Lead.ConvertedToClientID = c.ID
	if conv.CopyContacts {
		for _, ll := range m.leadLinks {
			if ll.leadID == conv.Lead.ID {
				m.clientLinks = append(m.clientLinks, clientLink{
					clientID: c.ID, contactID: ll.contactID, isPrimary: ll.isPrimary,
				})
			}
		}
	}
	if conv.CopyDocuments {
		for _, d := range m.documents {
			if d.EntityType == attachment.EntityLead && d.EntityID == conv.Lead.ID {
				cp := *d
				cp.ID = cp.ID + "-copy"
				cp.EntityType = attachment.EntityClient
				cp.EntityID = c.ID
				m.documents[cp.ID] = &cp
			}
		}
	}
	return nil
}

// --- attachments ---

func (m *mockStore) ListDocuments(_ context.Context, ref attachment.Ref) ([]attachment.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attachment.Document
	for _, d := range m.documents {
		if d.EntityType == ref.EntityType && d.EntityID == ref.EntityID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockStore) GetDocument(_ context.Context, id string) (*attachment.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) CreateDocument(_ context.Context, d *attachment.Document) error {
	if err := m.fail("CreateDocument"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.documents[d.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteDocument(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

func (m *mockStore) ListDiscussions(_ context.Context, ref attachment.Ref) ([]attachment.Discussion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attachment.Discussion
	for _, d := range m.discussions {
		if d.EntityType == ref.EntityType && d.EntityID == ref.EntityID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *mockStore) CreateDiscussion(_ context.Context, d *attachment.Discussion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.discussions[d.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteDiscussion(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.discussions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.discussions, id)
	return nil
}

func (m *mockStore) ListNotes(_ context.Context, ref attachment.Ref) ([]attachment.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []attachment.Note
	for _, n := range m.notes {
		if n.EntityType == ref.EntityType && n.EntityID == ref.EntityID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockStore) CreateNote(_ context.Context, n *attachment.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m *mockStore) UpdateNote(_ context.Context, n *attachment.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[n.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m *mockStore) SoftDeleteNote(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

// --- sequences / clone batches ---

func (m *mockStore) NextDisplayID(_ context.Context, entity string) (int64, error) {
	if err := m.fail("NextDisplayID"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq[entity]++
	return m.seq[entity], nil
}

func (m *mockStore) DeleteCloneBatch(_ context.Context, batchID string) error {
	if err := m.fail("DeleteCloneBatch"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.requirements {
		if r.CloneBatchID == batchID {
			delete(m.requirements, id)
		}
	}
	for id, p := range m.pitches {
		if p.CloneBatchID == batchID {
			delete(m.pitches, id)
		}
	}
	for id, s := range m.sets {
		if s.CloneBatchID == batchID {
			delete(m.sets, id)
		}
	}
	for id, p := range m.phases {
		if p.CloneBatchID == batchID {
			delete(m.phases, id)
		}
	}
	for id, p := range m.projects {
		if p.CloneBatchID == batchID {
			delete(m.projects, id)
		}
	}
	return nil
}
