package postgres

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/client"
)

const clientCols = `id, tenant_id, display_id, name, status, industry, website,
	COALESCE(source_lead_id::text, ''), created_at, COALESCE(created_by::text, ''),
	updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanClient(row scannable) (client.Client, error) {
	var c client.Client
	err := row.Scan(&c.ID, &c.TenantID, &c.DisplayID, &c.Name, &c.Status, &c.Industry, &c.Website,
		&c.SourceLeadID, &c.CreatedAt, &c.CreatedBy, &c.UpdatedAt, &c.UpdatedBy, &c.DeletedAt)
	return c, err
}

func (s *Store) ListClients(ctx context.Context) ([]client.Client, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+clientCols+`
		 FROM clients WHERE tenant_id = $1 AND deleted_at IS NULL
		 ORDER BY name`, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []client.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *Store) GetClient(ctx context.Context, id string) (*client.Client, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+clientCols+`
		 FROM clients WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))

	c, err := scanClient(row)
	if err != nil {
		return nil, notFoundWrap(err, "get client %s", id)
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, c *client.Client) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO clients (id, tenant_id, display_id, name, status, industry, website, source_lead_id, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING created_at, updated_at`,
		c.ID, tenantFromCtx(ctx), c.DisplayID, c.Name, string(c.Status), c.Industry, c.Website,
		nullIfEmpty(c.SourceLeadID), actorFromCtx(ctx))
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	c.TenantID = tenantFromCtx(ctx)
	return nil
}

func (s *Store) UpdateClient(ctx context.Context, c *client.Client) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clients SET name = $2, status = $3, industry = $4, website = $5, updated_at = now(), updated_by = $6
		 WHERE id = $1 AND tenant_id = $7 AND deleted_at IS NULL`,
		c.ID, c.Name, string(c.Status), c.Industry, c.Website, actorFromCtx(ctx), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update client %s", c.ID)
}

func (s *Store) SoftDeleteClient(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clients SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete client %s", id)
}
