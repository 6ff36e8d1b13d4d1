package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/atelierhq/atelier/internal/domain/identity"
	"github.com/atelierhq/atelier/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router. The caller
// wires the cross-cutting middleware (request id, tenant, auth, rate limit,
// idempotency) before mounting.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/healthz", h.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		// Clients
		r.Get("/clients", h.ListClients)
		r.Post("/clients", h.CreateClient)
		r.Get("/clients/{id}", h.GetClient)
		r.Put("/clients/{id}", h.UpdateClient)
		r.Delete("/clients/{id}", h.DeleteClient)

		// Client contact relationships
		r.Get("/clients/{id}/contacts", h.ListClientContacts)
		r.Post("/clients/{id}/contacts", h.LinkClientContact)
		r.Put("/clients/{id}/contacts/{contactID}", h.UpdateClientContact)
		r.Delete("/clients/{id}/contacts/{contactID}", h.UnlinkClientContact)
		r.Post("/clients/{id}/contacts/{contactID}/primary", h.SetPrimaryContact)

		// Contacts (global records)
		r.Get("/contacts", h.ListContacts)
		r.Post("/contacts", h.CreateContact)
		r.Get("/contacts/{id}", h.GetContact)
		r.Put("/contacts/{id}", h.UpdateContact)
		r.Delete("/contacts/{id}", h.DeleteContact)

		// Projects
		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{id}", h.GetProject)
		r.Put("/projects/{id}", h.UpdateProject)
		r.Delete("/projects/{id}", h.DeleteProject)
		r.Post("/projects/{id}/duplicate", h.DuplicateProject)
		r.Get("/projects/{id}/phases", h.ListPhases)

		// Project templates
		r.Get("/project-templates", h.ListProjectTemplates)
		r.Post("/project-templates/{id}/instantiate", h.InstantiateTemplate)

		// Phases
		r.Post("/phases", h.CreatePhase)
		r.Get("/phases/{id}", h.GetPhase)
		r.Put("/phases/{id}", h.UpdatePhase)
		r.Delete("/phases/{id}", h.DeletePhase)

		// Sets
		r.Get("/sets", h.ListSets)
		r.Post("/sets", h.CreateSet)
		r.Get("/sets/{id}", h.GetSet)
		r.Put("/sets/{id}", h.UpdateSet)
		r.Delete("/sets/{id}", h.DeleteSet)
		r.Get("/sets/{id}/pitches", h.ListPitches)

		// Pitches
		r.Post("/pitches", h.CreatePitch)
		r.Get("/pitches/{id}", h.GetPitch)
		r.Put("/pitches/{id}", h.UpdatePitch)
		r.Delete("/pitches/{id}", h.DeletePitch)
		r.Post("/pitches/{id}/approval", h.SetPitchApproval)

		// Requirements
		r.Get("/requirements", h.ListRequirements)
		r.Post("/requirements", h.CreateRequirement)
		r.Get("/requirements/{id}", h.GetRequirement)
		r.Put("/requirements/{id}", h.UpdateRequirement)
		r.Delete("/requirements/{id}", h.DeleteRequirement)

		// Sibling reordering and completion repair
		r.Post("/reorder", h.Reorder)
		r.Post("/completion/{level}/{id}/recompute", h.RecomputeCompletion)

		// Leads
		r.Get("/leads", h.ListLeads)
		r.Post("/leads", h.CreateLead)
		r.Get("/leads/{id}", h.GetLead)
		r.Put("/leads/{id}", h.UpdateLead)
		r.Delete("/leads/{id}", h.DeleteLead)
		r.Post("/leads/{id}/convert", h.ConvertLead)

		// Lead contact relationships
		r.Get("/leads/{id}/contacts", h.ListLeadContacts)
		r.Post("/leads/{id}/contacts", h.LinkLeadContact)
		r.Delete("/leads/{id}/contacts/{contactID}", h.UnlinkLeadContact)
		r.Post("/leads/{id}/contacts/{contactID}/primary", h.SetLeadPrimaryContact)

		// Attachments, per target entity
		r.Route("/attachments/{entityType}/{entityID}", func(r chi.Router) {
			r.Get("/documents", h.ListDocuments)
			r.Post("/documents", h.UploadDocument)
			r.Get("/discussions", h.ListDiscussions)
			r.Post("/discussions", h.CreateDiscussion)
			r.Get("/notes", h.ListNotes)
			r.Post("/notes", h.CreateNote)
		})
		r.Get("/documents/{id}", h.GetDocument)
		r.Get("/documents/{id}/download", h.DownloadDocument)
		r.Delete("/documents/{id}", h.DeleteDocument)
		r.Delete("/discussions/{id}", h.DeleteDiscussion)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)

		// Tenants (sys_admin only)
		r.Route("/tenants", func(r chi.Router) {
			r.Use(middleware.RequireRole(identity.RoleSysAdmin))
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{id}", h.GetTenant)
			r.Put("/{id}", h.UpdateTenant)
		})

		// Users and credentials (org_admin and above)
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(identity.RoleOrgAdmin))
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Post("/{id}/memberships", h.AddMembership)
			r.Post("/{id}/api-keys", h.IssueAPIKey)
		})
	})
}
