package postgres

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/project"
)

const projectCols = `id, tenant_id, display_id, client_id, name, description, status, health, completion_pct,
	COALESCE(lead_id::text, ''), COALESCE(secondary_lead_id::text, ''), COALESCE(pm_id::text, ''),
	start_date, end_date, is_template, COALESCE(clone_batch_id::text, ''),
	created_at, COALESCE(created_by::text, ''), updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanProject(row scannable) (project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.TenantID, &p.DisplayID, &p.ClientID, &p.Name, &p.Description, &p.Status, &p.Health, &p.CompletionPct,
		&p.LeadID, &p.SecondaryLeadID, &p.PMID,
		&p.StartDate, &p.EndDate, &p.IsTemplate, &p.CloneBatchID,
		&p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.UpdatedBy, &p.DeletedAt)
	return p, err
}

// ListProjects returns the operational view: soft-deleted rows and template
// rows are excluded. An empty clientID lists across the whole tenant.
func (s *Store) ListProjects(ctx context.Context, clientID string) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectCols+`
		 FROM projects
		 WHERE tenant_id = $1 AND deleted_at IS NULL AND NOT is_template
		   AND ($2::uuid IS NULL OR client_id = $2)
		 ORDER BY created_at DESC`,
		tenantFromCtx(ctx), nullIfEmpty(clientID))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) ListProjectTemplates(ctx context.Context) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectCols+`
		 FROM projects
		 WHERE tenant_id = $1 AND deleted_at IS NULL AND is_template
		 ORDER BY name`,
		tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list project templates: %w", err)
	}
	defer rows.Close()

	var templates []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, p)
	}
	return templates, rows.Err()
}

// GetProject returns template rows too: the clone engine loads its sources
// by id.
func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+projectCols+`
		 FROM projects WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))

	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO projects (id, tenant_id, display_id, client_id, name, description, status, health,
		                        lead_id, secondary_lead_id, pm_id, start_date, end_date, is_template, clone_batch_id,
		                        created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
		 RETURNING created_at, updated_at`,
		p.ID, tenantFromCtx(ctx), p.DisplayID, p.ClientID, p.Name, p.Description, string(p.Status), string(p.Health),
		nullIfEmpty(p.LeadID), nullIfEmpty(p.SecondaryLeadID), nullIfEmpty(p.PMID), p.StartDate, p.EndDate,
		p.IsTemplate, nullIfEmpty(p.CloneBatchID), actorFromCtx(ctx))
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	p.TenantID = tenantFromCtx(ctx)
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET name = $2, description = $3, status = $4, health = $5,
		        lead_id = $6, secondary_lead_id = $7, pm_id = $8, start_date = $9, end_date = $10,
		        updated_at = now(), updated_by = $11
		 WHERE id = $1 AND tenant_id = $12 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Description, string(p.Status), string(p.Health),
		nullIfEmpty(p.LeadID), nullIfEmpty(p.SecondaryLeadID), nullIfEmpty(p.PMID), p.StartDate, p.EndDate,
		actorFromCtx(ctx), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update project %s", p.ID)
}

func (s *Store) SoftDeleteProject(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete project %s", id)
}

func (s *Store) UpdateProjectCompletion(ctx context.Context, id string, pct int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET completion_pct = $2, updated_at = now()
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, pct, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update project completion %s", id)
}
