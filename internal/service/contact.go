package service

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/client"
	"github.com/atelierhq/atelier/internal/domain/lead"
	"github.com/atelierhq/atelier/internal/port/database"
)

// ContactService manages global contacts and the client/lead relationship
// joins. The separation is strict: contact edits never touch join rows, and
// relationship edits never touch the global record.
type ContactService struct {
	store database.Store
}

// NewContactService creates a new ContactService.
func NewContactService(store database.Store) *ContactService {
	return &ContactService{store: store}
}

// List returns all non-deleted contacts.
func (s *ContactService) List(ctx context.Context) ([]client.Contact, error) {
	return s.store.ListContacts(ctx)
}

// Get returns a contact by id.
func (s *ContactService) Get(ctx context.Context, id string) (*client.Contact, error) {
	return s.store.GetContact(ctx, id)
}

// Create creates a global contact.
func (s *ContactService) Create(ctx context.Context, req *client.ContactCreateRequest) (*client.Contact, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	displayID, err := nextDisplayID(ctx, s.store, "contact", client.ContactDisplayPrefix)
	if err != nil {
		return nil, err
	}

	c := &client.Contact{
		ID:        newID(),
		DisplayID: displayID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
		Notes:     req.Notes,
	}
	if err := s.store.CreateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return c, nil
}

// Update applies partial updates to the global contact record only.
func (s *ContactService) Update(ctx context.Context, id string, req client.ContactUpdateRequest) (*client.Contact, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.store.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		c.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		c.LastName = *req.LastName
	}
	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}
	if err := s.store.UpdateContact(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete soft-deletes a global contact.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	return s.store.SoftDeleteContact(ctx, id, actorID(ctx))
}

// --- Client relationships ---

// ListForClient returns a client's contact links, primary first.
func (s *ContactService) ListForClient(ctx context.Context, clientID string) ([]client.ContactLink, error) {
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.store.ListClientContacts(ctx, clientID)
}

// Link attaches a contact to a client. A primary link demotes any existing
// primary in the same transaction.
func (s *ContactService) Link(ctx context.Context, clientID string, req client.LinkRequest) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	if req.ContactID == "" {
		return domain.Validationf("contact_id", "is required")
	}
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return err
	}
	if _, err := s.store.GetContact(ctx, req.ContactID); err != nil {
		return err
	}
	return s.store.LinkContact(ctx, clientID, req.ContactID, req.Role, req.IsPrimary)
}

// Unlink detaches a contact from a client. Unlinking the primary leaves the
// client with no primary; promoteNext promotes the next remaining link
// instead.
func (s *ContactService) Unlink(ctx context.Context, clientID, contactID string, promoteNext bool) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	links, err := s.store.ListClientContacts(ctx, clientID)
	if err != nil {
		return err
	}
	wasPrimary := false
	for _, l := range links {
		if l.Contact.ID == contactID {
			wasPrimary = l.IsPrimary
			break
		}
	}

	if err := s.store.UnlinkContact(ctx, clientID, contactID); err != nil {
		return err
	}

	if wasPrimary && promoteNext {
		for _, l := range links {
			if l.Contact.ID != contactID {
				return s.store.SetPrimaryContact(ctx, clientID, l.Contact.ID)
			}
		}
	}
	return nil
}

// SetPrimary makes the given linked contact the single primary for the
// client. Unset-then-set runs in one store transaction; two concurrent
// calls settle on exactly one primary.
func (s *ContactService) SetPrimary(ctx context.Context, clientID, contactID string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	return s.store.SetPrimaryContact(ctx, clientID, contactID)
}

// UpdateRelationship edits only the join row: role and/or the primary flag.
// Clearing is_primary on the current primary leaves the client with none.
func (s *ContactService) UpdateRelationship(ctx context.Context, clientID, contactID string, req client.RelationshipUpdateRequest) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	if req.Role == nil && req.IsPrimary == nil {
		return domain.Validationf("relationship", "no fields to update")
	}
	if req.Role != nil {
		if err := s.store.UpdateClientContactRole(ctx, clientID, contactID, *req.Role); err != nil {
			return err
		}
	}
	if req.IsPrimary != nil {
		if *req.IsPrimary {
			return s.store.SetPrimaryContact(ctx, clientID, contactID)
		}
		return s.store.ClearPrimaryContact(ctx, clientID, contactID)
	}
	return nil
}

// --- Lead relationships ---

// ListForLead returns a lead's contact links.
func (s *ContactService) ListForLead(ctx context.Context, leadID string) ([]lead.ContactLink, error) {
	if _, err := s.store.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	return s.store.ListLeadContacts(ctx, leadID)
}

// LinkLead attaches a contact to a lead.
func (s *ContactService) LinkLead(ctx context.Context, leadID, contactID string, isPrimary, isDecisionMaker bool) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	if contactID == "" {
		return domain.Validationf("contact_id", "is required")
	}
	if _, err := s.store.GetLead(ctx, leadID); err != nil {
		return err
	}
	if _, err := s.store.GetContact(ctx, contactID); err != nil {
		return err
	}
	return s.store.LinkLeadContact(ctx, leadID, contactID, isPrimary, isDecisionMaker)
}

// UnlinkLead detaches a contact from a lead.
func (s *ContactService) UnlinkLead(ctx context.Context, leadID, contactID string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	return s.store.UnlinkLeadContact(ctx, leadID, contactID)
}

// SetLeadPrimary makes the given linked contact the lead's single primary.
func (s *ContactService) SetLeadPrimary(ctx context.Context, leadID, contactID string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	return s.store.SetLeadPrimaryContact(ctx, leadID, contactID)
}
