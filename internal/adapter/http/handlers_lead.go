package http

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/domain/lead"
)

// ---------------------------------------------------------------------------
// Leads
// ---------------------------------------------------------------------------

func (h *Handlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	handleList(h.leads.List)(w, r)
}

func (h *Handlers) CreateLead(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.leads.Create)(w, r)
}

func (h *Handlers) GetLead(w http.ResponseWriter, r *http.Request) {
	handleGet(h.leads.Get, "lead not found")(w, r)
}

func (h *Handlers) UpdateLead(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.leads.Update, "lead not found")(w, r)
}

func (h *Handlers) DeleteLead(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.leads.Delete, "lead not found")(w, r)
}

// ConvertLead converts a won-pipeline lead into a client. Repeating the call
// for an already-converted lead returns the existing client with 200.
func (h *Handlers) ConvertLead(w http.ResponseWriter, r *http.Request) {
	leadID := urlParam(r, "id")
	opts, ok := readOptionalJSON[lead.ConvertOptions](w, r, h.bodyLimit)
	if !ok {
		return
	}

	before, err := h.leads.Get(r.Context(), leadID)
	if err != nil {
		writeDomainError(w, err, "lead not found")
		return
	}
	c, err := h.leads.ConvertToClient(r.Context(), leadID, opts)
	if err != nil {
		writeDomainError(w, err, "lead not found")
		return
	}

	status := http.StatusCreated
	if before.ConvertedToClientID != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, c)
}

// ---------------------------------------------------------------------------
// Lead <-> contact relationships
// ---------------------------------------------------------------------------

func (h *Handlers) ListLeadContacts(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.contacts.ListForLead, "lead not found")(w, r)
}

type leadLinkRequest struct {
	ContactID       string `json:"contact_id"`
	IsPrimary       bool   `json:"is_primary,omitempty"`
	IsDecisionMaker bool   `json:"is_decision_maker,omitempty"`
}

func (h *Handlers) LinkLeadContact(w http.ResponseWriter, r *http.Request) {
	leadID := urlParam(r, "id")
	req, ok := readJSON[leadLinkRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.ContactID, "contact_id") {
		return
	}
	err := h.contacts.LinkLead(r.Context(), leadID, req.ContactID, req.IsPrimary, req.IsDecisionMaker)
	if err != nil {
		writeDomainError(w, err, "lead or contact not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UnlinkLeadContact(w http.ResponseWriter, r *http.Request) {
	err := h.contacts.UnlinkLead(r.Context(), urlParam(r, "id"), urlParam(r, "contactID"))
	if err != nil {
		writeDomainError(w, err, "link not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SetLeadPrimaryContact(w http.ResponseWriter, r *http.Request) {
	err := h.contacts.SetLeadPrimary(r.Context(), urlParam(r, "id"), urlParam(r, "contactID"))
	if err != nil {
		writeDomainError(w, err, "link not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
