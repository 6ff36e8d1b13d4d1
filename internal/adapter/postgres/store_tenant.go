package postgres

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/tenant"
)

const tenantCols = `id, name, slug, status, plan, created_at, updated_at`

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Status, &t.Plan, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	plan := req.Plan
	if plan == "" {
		plan = tenant.PlanStarter
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, slug, plan)
		 VALUES ($1, $2, $3)
		 RETURNING `+tenantCols,
		req.Name, req.Slug, string(plan))

	t, err := scanTenant(row)
	if err != nil {
		if uniqueViolation(err) {
			return nil, fmt.Errorf("create tenant %s: %w", req.Slug, domain.ErrConflict)
		}
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return &t, nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantCols+` FROM tenants WHERE id = $1`, id)

	t, err := scanTenant(row)
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantCols+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, status = $3, plan = $4, updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Name, string(t.Status), string(t.Plan))
	return execExpectOne(tag, err, "update tenant %s", t.ID)
}
