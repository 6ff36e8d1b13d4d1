package http

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/domain/project"
)

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

// ListProjects lists live (non-template) projects, optionally filtered by
// ?client_id=.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	items, err := h.projects.List(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		writeDomainError(w, err, "client not found")
		return
	}
	if items == nil {
		items = []project.Project{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) ListProjectTemplates(w http.ResponseWriter, r *http.Request) {
	handleList(h.projects.ListTemplates)(w, r)
}

func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.projects.Create)(w, r)
}

func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	handleGet(h.projects.Get, "project not found")(w, r)
}

func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.projects.Update, "project not found")(w, r)
}

func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.projects.Delete, "project not found")(w, r)
}

// DuplicateProject deep-copies a project per the posted options.
func (h *Handlers) DuplicateProject(w http.ResponseWriter, r *http.Request) {
	sourceID := urlParam(r, "id")
	opts, ok := readOptionalJSON[project.DuplicateOptions](w, r, h.bodyLimit)
	if !ok {
		return
	}
	clone, err := h.templates.Duplicate(r.Context(), sourceID, opts)
	if err != nil {
		writeDomainError(w, err, "project not found")
		return
	}
	writeJSON(w, http.StatusCreated, clone)
}

type instantiateTemplateRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name,omitempty"`
}

// InstantiateTemplate creates a live project from a template project.
func (h *Handlers) InstantiateTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := urlParam(r, "id")
	req, ok := readJSON[instantiateTemplateRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.ClientID, "client_id") {
		return
	}
	p, err := h.templates.CreateFromTemplate(r.Context(), templateID, req.ClientID, req.Name)
	if err != nil {
		writeDomainError(w, err, "template not found")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ---------------------------------------------------------------------------
// Phases
// ---------------------------------------------------------------------------

func (h *Handlers) ListPhases(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.phases.List, "project not found")(w, r)
}

func (h *Handlers) CreatePhase(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.phases.Create)(w, r)
}

func (h *Handlers) GetPhase(w http.ResponseWriter, r *http.Request) {
	handleGet(h.phases.Get, "phase not found")(w, r)
}

func (h *Handlers) UpdatePhase(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.phases.Update, "phase not found")(w, r)
}

func (h *Handlers) DeletePhase(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.phases.Delete, "phase not found")(w, r)
}
