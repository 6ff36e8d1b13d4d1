// Package database defines the database store port (interface).
//
// All tenant-scoped methods read the active tenant from the request context;
// the postgres adapter appends the tenant predicate to every scoped query.
// Methods named SoftDelete* set deleted_at; default reads exclude
// soft-deleted rows and, for listings, template rows (the operational view).
package database

import (
	"context"

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
)

// Store is the port interface for database operations.
type Store interface {
	TenantStore
	IdentityStore
	ClientStore
	ContactStore
	ProjectStore
	PhaseStore
	SetStore
	PitchStore
	RequirementStore
	LeadStore
	AttachmentStore
	SequenceStore
	CloneStore
}

// TenantStore manages tenants; not tenant-scoped itself.
type TenantStore interface {
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
}

// IdentityStore manages global users, memberships, and API keys.
type IdentityStore interface {
	CreateUser(ctx context.Context, u *identity.User) error
	GetUser(ctx context.Context, id string) (*identity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*identity.User, error)
	ListUsers(ctx context.Context) ([]identity.User, error)

	CreateMembership(ctx context.Context, m *identity.Membership) error
	// ListMemberships returns every membership of a user across all tenants;
	// it is deliberately unscoped so role resolution sees the full picture.
	ListMemberships(ctx context.Context, userID string) ([]identity.Membership, error)

	CreateAPIKey(ctx context.Context, k *identity.APIKey) error
	GetAPIKeyByPrefix(ctx context.Context, prefix string) (*identity.APIKey, error)
	TouchAPIKey(ctx context.Context, id string) error
}

// ClientStore is the tenant-scoped client repository.
type ClientStore interface {
	ListClients(ctx context.Context) ([]client.Client, error)
	GetClient(ctx context.Context, id string) (*client.Client, error)
	CreateClient(ctx context.Context, c *client.Client) error
	UpdateClient(ctx context.Context, c *client.Client) error
	SoftDeleteClient(ctx context.Context, id, deletedBy string) error
}

// ContactStore manages global contacts and both contact joins.
// SetPrimaryContact and SetLeadPrimaryContact run unset-then-set inside one
// database transaction; a partial application is never observable.
type ContactStore interface {
	ListContacts(ctx context.Context) ([]client.Contact, error)
	GetContact(ctx context.Context, id string) (*client.Contact, error)
	CreateContact(ctx context.Context, c *client.Contact) error
	UpdateContact(ctx context.Context, c *client.Contact) error
	SoftDeleteContact(ctx context.Context, id, deletedBy string) error

	ListClientContacts(ctx context.Context, clientID string) ([]client.ContactLink, error)
	LinkContact(ctx context.Context, clientID, contactID, role string, isPrimary bool) error
	UnlinkContact(ctx context.Context, clientID, contactID string) error
	SetPrimaryContact(ctx context.Context, clientID, contactID string) error
	ClearPrimaryContact(ctx context.Context, clientID, contactID string) error
	UpdateClientContactRole(ctx context.Context, clientID, contactID, role string) error

	ListLeadContacts(ctx context.Context, leadID string) ([]lead.ContactLink, error)
	LinkLeadContact(ctx context.Context, leadID, contactID string, isPrimary, isDecisionMaker bool) error
	UnlinkLeadContact(ctx context.Context, leadID, contactID string) error
	SetLeadPrimaryContact(ctx context.Context, leadID, contactID string) error
}

// ProjectStore is the tenant-scoped project repository. ListProjects excludes
// templates; ListProjectTemplates returns only templates. GetProject returns
// template rows too, since the clone engine loads its sources by id.
type ProjectStore interface {
	ListProjects(ctx context.Context, clientID string) ([]project.Project, error)
	ListProjectTemplates(ctx context.Context) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	CreateProject(ctx context.Context, p *project.Project) error
	UpdateProject(ctx context.Context, p *project.Project) error
	SoftDeleteProject(ctx context.Context, id, deletedBy string) error
	UpdateProjectCompletion(ctx context.Context, id string, pct int) error
}

// PhaseStore is the tenant-scoped phase repository.
type PhaseStore interface {
	ListPhases(ctx context.Context, projectID string) ([]phase.Phase, error)
	GetPhase(ctx context.Context, id string) (*phase.Phase, error)
	CreatePhase(ctx context.Context, p *phase.Phase) error
	UpdatePhase(ctx context.Context, p *phase.Phase) error
	SoftDeletePhase(ctx context.Context, id, deletedBy string) error
	UpdatePhaseOrder(ctx context.Context, id string, order int) error
	UpdatePhaseCompletion(ctx context.Context, id string, pct int) error
}

// SetStore is the tenant-scoped set repository.
type SetStore interface {
	ListSets(ctx context.Context, f workset.Filter) ([]workset.Set, error)
	GetSet(ctx context.Context, id string) (*workset.Set, error)
	CreateSet(ctx context.Context, s *workset.Set) error
	UpdateSet(ctx context.Context, s *workset.Set) error
	SoftDeleteSet(ctx context.Context, id, deletedBy string) error
	UpdateSetOrder(ctx context.Context, id string, order int) error
	UpdateSetCompletion(ctx context.Context, id string, pct int) error
}

// PitchStore is the tenant-scoped pitch repository.
type PitchStore interface {
	ListPitches(ctx context.Context, setID string) ([]pitch.Pitch, error)
	GetPitch(ctx context.Context, id string) (*pitch.Pitch, error)
	CreatePitch(ctx context.Context, p *pitch.Pitch) error
	UpdatePitch(ctx context.Context, p *pitch.Pitch) error
	SoftDeletePitch(ctx context.Context, id, deletedBy string) error
	UpdatePitchOrder(ctx context.Context, id string, order int) error
	UpdatePitchCompletion(ctx context.Context, id string, pct int) error
}

// RequirementStore is the tenant-scoped requirement repository.
type RequirementStore interface {
	ListRequirements(ctx context.Context, f requirement.Filter) ([]requirement.Requirement, error)
	GetRequirement(ctx context.Context, id string) (*requirement.Requirement, error)
	CreateRequirement(ctx context.Context, r *requirement.Requirement) error
	UpdateRequirement(ctx context.Context, r *requirement.Requirement) error
	SoftDeleteRequirement(ctx context.Context, id, deletedBy string) error
	UpdateRequirementOrder(ctx context.Context, id string, order int) error
}

// LeadStore is the tenant-scoped lead repository. ConvertLead performs the
// whole conversion (client insert, lead back-reference, contact and document
// copies) inside one database transaction.
type LeadStore interface {
	ListLeads(ctx context.Context) ([]lead.Lead, error)
	GetLead(ctx context.Context, id string) (*lead.Lead, error)
	CreateLead(ctx context.Context, l *lead.Lead) error
	UpdateLead(ctx context.Context, l *lead.Lead) error
	SoftDeleteLead(ctx context.Context, id, deletedBy string) error
	ConvertLead(ctx context.Context, conv lead.ConversionRecord) error
}

// AttachmentStore manages the polymorphic attachments.
type AttachmentStore interface {
	ListDocuments(ctx context.Context, ref attachment.Ref) ([]attachment.Document, error)
	GetDocument(ctx context.Context, id string) (*attachment.Document, error)
	CreateDocument(ctx context.Context, d *attachment.Document) error
	SoftDeleteDocument(ctx context.Context, id, deletedBy string) error

	ListDiscussions(ctx context.Context, ref attachment.Ref) ([]attachment.Discussion, error)
	CreateDiscussion(ctx context.Context, d *attachment.Discussion) error
	SoftDeleteDiscussion(ctx context.Context, id, deletedBy string) error

	ListNotes(ctx context.Context, ref attachment.Ref) ([]attachment.Note, error)
	CreateNote(ctx context.Context, n *attachment.Note) error
	UpdateNote(ctx context.Context, n *attachment.Note) error
	SoftDeleteNote(ctx context.Context, id, deletedBy string) error
}

// SequenceStore hands out per-tenant display-id counters.
type SequenceStore interface {
	NextDisplayID(ctx context.Context, entity string) (int64, error)
}

// CloneStore supports the template engine's best-effort cleanup: a hard
// delete of every row inserted under one clone-batch marker. Clone garbage
// was never linked, so hard deletion is safe here.
type CloneStore interface {
	DeleteCloneBatch(ctx context.Context, batchID string) error
}
