package http

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/domain/requirement"
	"github.com/atelierhq/atelier/internal/domain/workset"
	"github.com/atelierhq/atelier/internal/service"
)

// ---------------------------------------------------------------------------
// Sets
// ---------------------------------------------------------------------------

// ListSets lists sets filtered by ?client_id=, ?project_id=, ?phase_id=, and
// ?portal_only=true.
func (h *Handlers) ListSets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.sets.List(r.Context(), workset.Filter{
		ClientID:   q.Get("client_id"),
		ProjectID:  q.Get("project_id"),
		PhaseID:    q.Get("phase_id"),
		PortalOnly: q.Get("portal_only") == "true",
	})
	if err != nil {
		writeDomainError(w, err, "listing failed")
		return
	}
	if items == nil {
		items = []workset.Set{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) CreateSet(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.sets.Create)(w, r)
}

func (h *Handlers) GetSet(w http.ResponseWriter, r *http.Request) {
	handleGet(h.sets.Get, "set not found")(w, r)
}

func (h *Handlers) UpdateSet(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.sets.Update, "set not found")(w, r)
}

func (h *Handlers) DeleteSet(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.sets.Delete, "set not found")(w, r)
}

// ---------------------------------------------------------------------------
// Pitches
// ---------------------------------------------------------------------------

func (h *Handlers) ListPitches(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.pitches.List, "set not found")(w, r)
}

func (h *Handlers) CreatePitch(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.pitches.Create)(w, r)
}

func (h *Handlers) GetPitch(w http.ResponseWriter, r *http.Request) {
	handleGet(h.pitches.Get, "pitch not found")(w, r)
}

func (h *Handlers) UpdatePitch(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.pitches.Update, "pitch not found")(w, r)
}

func (h *Handlers) DeletePitch(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.pitches.Delete, "pitch not found")(w, r)
}

type approvalRequest struct {
	Approved bool `json:"approved"`
}

// SetPitchApproval records or revokes pitch approval.
func (h *Handlers) SetPitchApproval(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[approvalRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	p, err := h.pitches.SetApproval(r.Context(), id, req.Approved)
	if err != nil {
		writeDomainError(w, err, "pitch not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ---------------------------------------------------------------------------
// Requirements
// ---------------------------------------------------------------------------

// ListRequirements lists requirements filtered by ?set_id=, ?pitch_id=,
// ?assignee_id=, ?tasks_only=true, and ?portal_only=true.
func (h *Handlers) ListRequirements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.requirements.List(r.Context(), requirement.Filter{
		SetID:      q.Get("set_id"),
		PitchID:    q.Get("pitch_id"),
		AssigneeID: q.Get("assignee_id"),
		TasksOnly:  q.Get("tasks_only") == "true",
		PortalOnly: q.Get("portal_only") == "true",
	})
	if err != nil {
		writeDomainError(w, err, "listing failed")
		return
	}
	if items == nil {
		items = []requirement.Requirement{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) CreateRequirement(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.requirements.Create)(w, r)
}

func (h *Handlers) GetRequirement(w http.ResponseWriter, r *http.Request) {
	handleGet(h.requirements.Get, "requirement not found")(w, r)
}

func (h *Handlers) UpdateRequirement(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.requirements.Update, "requirement not found")(w, r)
}

func (h *Handlers) DeleteRequirement(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.requirements.Delete, "requirement not found")(w, r)
}

// ---------------------------------------------------------------------------
// Reordering
// ---------------------------------------------------------------------------

type reorderRequest struct {
	Scope      string   `json:"scope"`
	ParentID   string   `json:"parent_id"`
	OrderedIDs []string `json:"ordered_ids"`
}

// Reorder rewrites a sibling group to the posted dense order. A mid-sequence
// failure returns 502 with the applied and unapplied id lists.
func (h *Handlers) Reorder(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[reorderRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.ParentID, "parent_id") {
		return
	}
	err := h.ordering.Reorder(r.Context(), service.Scope(req.Scope), req.ParentID, req.OrderedIDs)
	if err != nil {
		writeDomainError(w, err, "parent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecomputeCompletion forces a completion re-aggregation at one level, for
// repair after out-of-band writes.
func (h *Handlers) RecomputeCompletion(w http.ResponseWriter, r *http.Request) {
	level := service.Level(urlParam(r, "level"))
	if err := h.aggregation.RecomputeCompletion(r.Context(), level, urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "entity not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
