package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/client"
	"github.com/atelierhq/atelier/internal/domain/lead"
)

// --- Global contacts ---

const contactCols = `id, display_id, first_name, last_name, email, phone, title, notes,
	created_at, COALESCE(created_by::text, ''), updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanContact(row scannable) (client.Contact, error) {
	var c client.Contact
	err := row.Scan(&c.ID, &c.DisplayID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Title, &c.Notes,
		&c.CreatedAt, &c.CreatedBy, &c.UpdatedAt, &c.UpdatedBy, &c.DeletedAt)
	return c, err
}

func (s *Store) ListContacts(ctx context.Context) ([]client.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactCols+`
		 FROM contacts WHERE deleted_at IS NULL
		 ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []client.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (s *Store) GetContact(ctx context.Context, id string) (*client.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+contactCols+`
		 FROM contacts WHERE id = $1 AND deleted_at IS NULL`, id)

	c, err := scanContact(row)
	if err != nil {
		return nil, notFoundWrap(err, "get contact %s", id)
	}
	return &c, nil
}

func (s *Store) CreateContact(ctx context.Context, c *client.Contact) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (id, display_id, first_name, last_name, email, phone, title, notes, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING created_at, updated_at`,
		c.ID, c.DisplayID, c.FirstName, c.LastName, c.Email, c.Phone, c.Title, c.Notes, actorFromCtx(ctx))
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// UpdateContact writes only the global contact record; join rows are
// untouched by design.
func (s *Store) UpdateContact(ctx context.Context, c *client.Contact) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET first_name = $2, last_name = $3, email = $4, phone = $5, title = $6, notes = $7,
		        updated_at = now(), updated_by = $8
		 WHERE id = $1 AND deleted_at IS NULL`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Title, c.Notes, actorFromCtx(ctx))
	return execExpectOne(tag, err, "update contact %s", c.ID)
}

func (s *Store) SoftDeleteContact(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy))
	return execExpectOne(tag, err, "delete contact %s", id)
}

// --- Client contact links ---

func (s *Store) ListClientContacts(ctx context.Context, clientID string) ([]client.ContactLink, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.display_id, c.first_name, c.last_name, c.email, c.phone, c.title, c.notes,
		        c.created_at, COALESCE(c.created_by::text, ''), c.updated_at, COALESCE(c.updated_by::text, ''), c.deleted_at,
		        cc.client_id, cc.role, cc.is_primary, cc.created_at
		 FROM client_contacts cc
		 JOIN contacts c ON c.id = cc.contact_id
		 JOIN clients cl ON cl.id = cc.client_id
		 WHERE cc.client_id = $1 AND cl.tenant_id = $2 AND c.deleted_at IS NULL
		 ORDER BY cc.is_primary DESC, c.last_name, c.first_name`,
		clientID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list client contacts: %w", err)
	}
	defer rows.Close()

	var links []client.ContactLink
	for rows.Next() {
		var l client.ContactLink
		c := &l.Contact
		if err := rows.Scan(&c.ID, &c.DisplayID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Title, &c.Notes,
			&c.CreatedAt, &c.CreatedBy, &c.UpdatedAt, &c.UpdatedBy, &c.DeletedAt,
			&l.ClientID, &l.Role, &l.IsPrimary, &l.LinkedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *Store) LinkContact(ctx context.Context, clientID, contactID, role string, isPrimary bool) error {
	if isPrimary {
		return s.linkPrimary(ctx, clientID, contactID, role)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO client_contacts (client_id, contact_id, role, is_primary)
		 VALUES ($1, $2, $3, FALSE)`,
		clientID, contactID, role)
	if err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("link contact %s to client %s: %w", contactID, clientID, domain.ErrConflict)
		}
		return fmt.Errorf("link contact %s to client %s: %w", contactID, clientID, err)
	}
	return nil
}

// linkPrimary inserts the link and promotes it in one transaction, so the
// one-primary index never sees two primaries.
func (s *Store) linkPrimary(ctx context.Context, clientID, contactID, role string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE client_contacts SET is_primary = FALSE WHERE client_id = $1 AND is_primary`, clientID); err != nil {
			return fmt.Errorf("demote primary for client %s: %w", clientID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO client_contacts (client_id, contact_id, role, is_primary)
			 VALUES ($1, $2, $3, TRUE)`,
			clientID, contactID, role); err != nil {
			if uniqueViolation(err) {
				return fmt.Errorf("link contact %s to client %s: %w", contactID, clientID, domain.ErrConflict)
			}
			return fmt.Errorf("link contact %s to client %s: %w", contactID, clientID, err)
		}
		return nil
	})
}

func (s *Store) UnlinkContact(ctx context.Context, clientID, contactID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM client_contacts WHERE client_id = $1 AND contact_id = $2`,
		clientID, contactID)
	return execExpectOne(tag, err, "unlink contact %s from client %s", contactID, clientID)
}

// SetPrimaryContact demotes the current primary and promotes the given link
// inside one transaction. Either both writes land or neither does.
func (s *Store) SetPrimaryContact(ctx context.Context, clientID, contactID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE client_contacts SET is_primary = FALSE WHERE client_id = $1 AND is_primary`, clientID); err != nil {
			return fmt.Errorf("demote primary for client %s: %w", clientID, err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE client_contacts SET is_primary = TRUE WHERE client_id = $1 AND contact_id = $2`,
			clientID, contactID)
		return execExpectOne(tag, err, "set primary contact %s for client %s", contactID, clientID)
	})
}

func (s *Store) ClearPrimaryContact(ctx context.Context, clientID, contactID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE client_contacts SET is_primary = FALSE
		 WHERE client_id = $1 AND contact_id = $2 AND is_primary`,
		clientID, contactID)
	return execExpectOne(tag, err, "clear primary contact %s for client %s", contactID, clientID)
}

func (s *Store) UpdateClientContactRole(ctx context.Context, clientID, contactID, role string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE client_contacts SET role = $3 WHERE client_id = $1 AND contact_id = $2`,
		clientID, contactID, role)
	return execExpectOne(tag, err, "update role of contact %s on client %s", contactID, clientID)
}

// --- Lead contact links ---

func (s *Store) ListLeadContacts(ctx context.Context, leadID string) ([]lead.ContactLink, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lc.contact_id, lc.lead_id, lc.role, lc.is_primary, lc.is_decision_maker, lc.created_at
		 FROM lead_contacts lc
		 JOIN leads l ON l.id = lc.lead_id
		 WHERE lc.lead_id = $1 AND l.tenant_id = $2
		 ORDER BY lc.is_primary DESC, lc.created_at`,
		leadID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list lead contacts: %w", err)
	}
	defer rows.Close()

	var links []lead.ContactLink
	for rows.Next() {
		var l lead.ContactLink
		if err := rows.Scan(&l.ContactID, &l.LeadID, &l.Role, &l.IsPrimary, &l.IsDecisionMaker, &l.LinkedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (s *Store) LinkLeadContact(ctx context.Context, leadID, contactID string, isPrimary, isDecisionMaker bool) error {
	if isPrimary {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx,
				`UPDATE lead_contacts SET is_primary = FALSE WHERE lead_id = $1 AND is_primary`, leadID); err != nil {
				return fmt.Errorf("demote primary for lead %s: %w", leadID, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO lead_contacts (lead_id, contact_id, is_primary, is_decision_maker)
				 VALUES ($1, $2, TRUE, $3)`,
				leadID, contactID, isDecisionMaker); err != nil {
				if uniqueViolation(err) {
					return fmt.Errorf("link contact %s to lead %s: %w", contactID, leadID, domain.ErrConflict)
				}
				return fmt.Errorf("link contact %s to lead %s: %w", contactID, leadID, err)
			}
			return nil
		})
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lead_contacts (lead_id, contact_id, is_primary, is_decision_maker)
		 VALUES ($1, $2, FALSE, $3)`,
		leadID, contactID, isDecisionMaker)
	if err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("link contact %s to lead %s: %w", contactID, leadID, domain.ErrConflict)
		}
		return fmt.Errorf("link contact %s to lead %s: %w", contactID, leadID, err)
	}
	return nil
}

func (s *Store) UnlinkLeadContact(ctx context.Context, leadID, contactID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM lead_contacts WHERE lead_id = $1 AND contact_id = $2`,
		leadID, contactID)
	return execExpectOne(tag, err, "unlink contact %s from lead %s", contactID, leadID)
}

func (s *Store) SetLeadPrimaryContact(ctx context.Context, leadID, contactID string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE lead_contacts SET is_primary = FALSE WHERE lead_id = $1 AND is_primary`, leadID); err != nil {
			return fmt.Errorf("demote primary for lead %s: %w", leadID, err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE lead_contacts SET is_primary = TRUE WHERE lead_id = $1 AND contact_id = $2`,
			leadID, contactID)
		return execExpectOne(tag, err, "set primary contact %s for lead %s", contactID, leadID)
	})
}

// inTx runs fn inside a transaction, committing on nil and rolling back on
// error.
func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
