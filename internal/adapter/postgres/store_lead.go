package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/atelierhq/atelier/internal/domain/lead"
)

const leadCols = `id, tenant_id, display_id, company_name, status, source, estimated_value, notes,
	COALESCE(converted_to_client_id::text, ''),
	created_at, COALESCE(created_by::text, ''), updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanLead(row scannable) (lead.Lead, error) {
	var l lead.Lead
	err := row.Scan(&l.ID, &l.TenantID, &l.DisplayID, &l.CompanyName, &l.Status, &l.Source, &l.EstimatedValue, &l.Notes,
		&l.ConvertedToClientID,
		&l.CreatedAt, &l.CreatedBy, &l.UpdatedAt, &l.UpdatedBy, &l.DeletedAt)
	return l, err
}

func (s *Store) ListLeads(ctx context.Context) ([]lead.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+leadCols+`
		 FROM leads WHERE tenant_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC`, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []lead.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (s *Store) GetLead(ctx context.Context, id string) (*lead.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadCols+`
		 FROM leads WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))

	l, err := scanLead(row)
	if err != nil {
		return nil, notFoundWrap(err, "get lead %s", id)
	}
	return &l, nil
}

func (s *Store) CreateLead(ctx context.Context, l *lead.Lead) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO leads (id, tenant_id, display_id, company_name, status, source, estimated_value, notes, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING created_at, updated_at`,
		l.ID, tenantFromCtx(ctx), l.DisplayID, l.CompanyName, string(l.Status), l.Source, l.EstimatedValue, l.Notes,
		actorFromCtx(ctx))
	if err := row.Scan(&l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	l.TenantID = tenantFromCtx(ctx)
	return nil
}

func (s *Store) UpdateLead(ctx context.Context, l *lead.Lead) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET company_name = $2, status = $3, source = $4, estimated_value = $5, notes = $6,
		        updated_at = now(), updated_by = $7
		 WHERE id = $1 AND tenant_id = $8 AND deleted_at IS NULL`,
		l.ID, l.CompanyName, string(l.Status), l.Source, l.EstimatedValue, l.Notes,
		actorFromCtx(ctx), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update lead %s", l.ID)
}

func (s *Store) SoftDeleteLead(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete lead %s", id)
}

// ConvertLead applies one conversion in a single transaction: insert the
// new client, stamp the lead won with the forward reference, copy lead
// contacts into client contacts preserving is_primary, and re-point
// document copies at the new client. Any failure rolls back the whole
// conversion, so a lead is never half-converted.
func (s *Store) ConvertLead(ctx context.Context, conv lead.ConversionRecord) error {
	tid := tenantFromCtx(ctx)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		c := conv.Client
		row := tx.QueryRow(ctx,
			`INSERT INTO clients (id, tenant_id, display_id, name, status, industry, website, source_lead_id, created_by, updated_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			 RETURNING created_at, updated_at`,
			c.ID, tid, c.DisplayID, c.Name, string(c.Status), c.Industry, c.Website,
			c.SourceLeadID, actorFromCtx(ctx))
		if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
			return fmt.Errorf("convert lead %s: insert client: %w", conv.Lead.ID, err)
		}
		c.TenantID = tid

		tag, err := tx.Exec(ctx,
			`UPDATE leads SET status = $2, converted_to_client_id = $3, updated_at = now(), updated_by = $4
			 WHERE id = $1 AND tenant_id = $5 AND deleted_at IS NULL AND converted_to_client_id IS NULL`,
			conv.Lead.ID, string(lead.StatusWon), c.ID, actorFromCtx(ctx), tid)
		if err := execExpectOne(tag, err, "convert lead %s: stamp lead", conv.Lead.ID); err != nil {
			return err
		}

		if conv.CopyContacts {
			if _, err := tx.Exec(ctx,
				`INSERT INTO client_contacts (client_id, contact_id, role, is_primary)
				 SELECT $1, contact_id, role, is_primary FROM lead_contacts WHERE lead_id = $2`,
				c.ID, conv.Lead.ID); err != nil {
				return fmt.Errorf("convert lead %s: copy contacts: %w", conv.Lead.ID, err)
			}
		}

		if conv.CopyDocuments {
			if _, err := tx.Exec(ctx,
				`INSERT INTO documents (id, tenant_id, entity_type, entity_id, file_name, content_type, size_bytes, storage_key, url, created_by)
				 SELECT gen_random_uuid(), tenant_id, 'client', $1, file_name, content_type, size_bytes, storage_key, url, created_by
				 FROM documents WHERE entity_type = 'lead' AND entity_id = $2 AND deleted_at IS NULL`,
				c.ID, conv.Lead.ID); err != nil {
				return fmt.Errorf("convert lead %s: copy documents: %w", conv.Lead.ID, err)
			}
		}

		conv.Lead.Status = lead.StatusWon
		conv.Lead.ConvertedToClientID = c.ID
		return nil
	})
}
