package http

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/domain/client"
)

// ---------------------------------------------------------------------------
// Clients
// ---------------------------------------------------------------------------

func (h *Handlers) ListClients(w http.ResponseWriter, r *http.Request) {
	handleList(h.clients.List)(w, r)
}

func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.clients.Create)(w, r)
}

func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	handleGet(h.clients.Get, "client not found")(w, r)
}

func (h *Handlers) UpdateClient(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.clients.Update, "client not found")(w, r)
}

func (h *Handlers) DeleteClient(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.clients.Delete, "client not found")(w, r)
}

// ---------------------------------------------------------------------------
// Contacts (global records)
// ---------------------------------------------------------------------------

func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	handleList(h.contacts.List)(w, r)
}

func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.contacts.Create)(w, r)
}

func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	handleGet(h.contacts.Get, "contact not found")(w, r)
}

func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.contacts.Update, "contact not found")(w, r)
}

func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.contacts.Delete, "contact not found")(w, r)
}

// ---------------------------------------------------------------------------
// Client <-> contact relationships
// ---------------------------------------------------------------------------

func (h *Handlers) ListClientContacts(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.contacts.ListForClient, "client not found")(w, r)
}

func (h *Handlers) LinkClientContact(w http.ResponseWriter, r *http.Request) {
	clientID := urlParam(r, "id")
	req, ok := readJSON[client.LinkRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	if err := h.contacts.Link(r.Context(), clientID, req); err != nil {
		writeDomainError(w, err, "client or contact not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnlinkClientContact removes a link. With ?promote_next=true the oldest
// remaining link is promoted when the removed contact was primary.
func (h *Handlers) UnlinkClientContact(w http.ResponseWriter, r *http.Request) {
	promote := r.URL.Query().Get("promote_next") == "true"
	err := h.contacts.Unlink(r.Context(), urlParam(r, "id"), urlParam(r, "contactID"), promote)
	if err != nil {
		writeDomainError(w, err, "link not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateClientContact(w http.ResponseWriter, r *http.Request) {
	clientID := urlParam(r, "id")
	contactID := urlParam(r, "contactID")
	req, ok := readJSON[client.RelationshipUpdateRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	if err := h.contacts.UpdateRelationship(r.Context(), clientID, contactID, req); err != nil {
		writeDomainError(w, err, "link not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SetPrimaryContact(w http.ResponseWriter, r *http.Request) {
	err := h.contacts.SetPrimary(r.Context(), urlParam(r, "id"), urlParam(r, "contactID"))
	if err != nil {
		writeDomainError(w, err, "link not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
