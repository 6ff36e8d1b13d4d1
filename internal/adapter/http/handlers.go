// Package http provides the HTTP adapter: handlers, routing, and the
// middleware that is specific to the HTTP surface.
package http

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/service"
)

// Handlers holds the service dependencies for all HTTP handlers.
type Handlers struct {
	bodyLimit int64

	clients      *service.ClientService
	contacts     *service.ContactService
	projects     *service.ProjectService
	phases       *service.PhaseService
	sets         *service.SetService
	pitches      *service.PitchService
	requirements *service.RequirementService
	ordering     *service.OrderingService
	templates    *service.TemplateService
	leads        *service.LeadService
	documents    *service.DocumentService
	aggregation  *service.AggregationService
	tenants      *service.TenantService
	identity     *service.IdentityService
}

// Services bundles the service layer for handler construction.
type Services struct {
	Clients      *service.ClientService
	Contacts     *service.ContactService
	Projects     *service.ProjectService
	Phases       *service.PhaseService
	Sets         *service.SetService
	Pitches      *service.PitchService
	Requirements *service.RequirementService
	Ordering     *service.OrderingService
	Templates    *service.TemplateService
	Leads        *service.LeadService
	Documents    *service.DocumentService
	Aggregation  *service.AggregationService
	Tenants      *service.TenantService
	Identity     *service.IdentityService
}

// NewHandlers creates the handler set. bodyLimitKB bounds JSON request bodies.
func NewHandlers(svcs Services, bodyLimitKB int64) *Handlers {
	if bodyLimitKB <= 0 {
		bodyLimitKB = 1024
	}
	return &Handlers{
		bodyLimit:    bodyLimitKB << 10,
		clients:      svcs.Clients,
		contacts:     svcs.Contacts,
		projects:     svcs.Projects,
		phases:       svcs.Phases,
		sets:         svcs.Sets,
		pitches:      svcs.Pitches,
		requirements: svcs.Requirements,
		ordering:     svcs.Ordering,
		templates:    svcs.Templates,
		leads:        svcs.Leads,
		documents:    svcs.Documents,
		aggregation:  svcs.Aggregation,
		tenants:      svcs.Tenants,
		identity:     svcs.Identity,
	}
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
