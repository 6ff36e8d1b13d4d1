package client

import (
	"net/mail"
	"time"

	"github.com/atelierhq/atelier/internal/domain"
)

// ContactDisplayPrefix is the display-id prefix for contacts.
const ContactDisplayPrefix = "CT"

// Contact is a global person record. It is not siloed to one client; links
// to clients (and leads) go through join rows that carry the
// relationship-scoped fields.
type Contact struct {
	ID        string     `json:"id"`
	DisplayID string     `json:"display_id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Title     string     `json:"title,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ContactLink is the typed result of the client↔contact join: the global
// contact plus the relationship-scoped columns of the join row.
type ContactLink struct {
	Contact   Contact   `json:"contact"`
	ClientID  string    `json:"client_id"`
	Role      string    `json:"role,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	LinkedAt  time.Time `json:"linked_at"`
}

// ContactCreateRequest is the input for creating a global contact.
type ContactCreateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Title     string `json:"title,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Validate checks the ContactCreateRequest.
func (r *ContactCreateRequest) Validate() error {
	if r.FirstName == "" && r.LastName == "" {
		return domain.Validationf("name", "first or last name is required")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return domain.Validationf("email", "invalid address")
		}
	}
	return nil
}

// ContactUpdateRequest is the input for a partial update of the global
// contact record. It deliberately has no relationship fields: editing a
// contact must never touch any join row.
type ContactUpdateRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Title     *string `json:"title,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// Validate checks the ContactUpdateRequest.
func (r *ContactUpdateRequest) Validate() error {
	if r.Email != nil && *r.Email != "" {
		if _, err := mail.ParseAddress(*r.Email); err != nil {
			return domain.Validationf("email", "invalid address")
		}
	}
	return nil
}

// LinkRequest is the input for linking a contact to a client.
type LinkRequest struct {
	ContactID string `json:"contact_id"`
	Role      string `json:"role,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// RelationshipUpdateRequest updates only the join row's relationship-scoped
// fields; it never writes to the global contact record.
type RelationshipUpdateRequest struct {
	Role      *string `json:"role,omitempty"`
	IsPrimary *bool   `json:"is_primary,omitempty"`
}
