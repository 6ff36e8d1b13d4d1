package http

import (
	"net/http"

	"github.com/atelierhq/atelier/internal/domain/identity"
)

// ---------------------------------------------------------------------------
// Tenants
// ---------------------------------------------------------------------------

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	handleList(h.tenants.List)(w, r)
}

func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.tenants.Create)(w, r)
}

func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	handleGet(h.tenants.Get, "tenant not found")(w, r)
}

func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit, h.tenants.Update, "tenant not found")(w, r)
}

// ---------------------------------------------------------------------------
// Users and memberships
// ---------------------------------------------------------------------------

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	handleList(h.identity.ListUsers)(w, r)
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit, h.identity.RegisterUser)(w, r)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	handleGet(h.identity.GetUser, "user not found")(w, r)
}

type membershipRequest struct {
	TenantID string        `json:"tenant_id"`
	Role     identity.Role `json:"role"`
}

// AddMembership grants the user a role in a tenant.
func (h *Handlers) AddMembership(w http.ResponseWriter, r *http.Request) {
	userID := urlParam(r, "id")
	req, ok := readJSON[membershipRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.TenantID, "tenant_id") {
		return
	}
	m, err := h.identity.AddMembership(r.Context(), req.TenantID, userID, req.Role)
	if err != nil {
		writeDomainError(w, err, "tenant or user not found")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// ---------------------------------------------------------------------------
// API keys
// ---------------------------------------------------------------------------

type issueKeyRequest struct {
	Label string `json:"label,omitempty"`
}

type issueKeyResponse struct {
	Key    identity.APIKey `json:"key"`
	Secret string          `json:"secret"`
}

// IssueAPIKey mints an API key for the user. The secret appears only in this
// response; the stored row keeps the hash.
func (h *Handlers) IssueAPIKey(w http.ResponseWriter, r *http.Request) {
	userID := urlParam(r, "id")
	req, ok := readJSON[issueKeyRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	k, secret, err := h.identity.IssueAPIKey(r.Context(), userID, req.Label)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusCreated, issueKeyResponse{Key: *k, Secret: secret})
}
