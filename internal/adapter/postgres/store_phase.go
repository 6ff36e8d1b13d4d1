package postgres

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/phase"
)

const phaseCols = `id, tenant_id, display_id, project_id, name, description, phase_order,
	COALESCE(predecessor_id::text, ''), completion_pct, start_date, end_date,
	is_template, COALESCE(clone_batch_id::text, ''),
	created_at, COALESCE(created_by::text, ''), updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanPhase(row scannable) (phase.Phase, error) {
	var p phase.Phase
	err := row.Scan(&p.ID, &p.TenantID, &p.DisplayID, &p.ProjectID, &p.Name, &p.Description, &p.PhaseOrder,
		&p.PredecessorID, &p.CompletionPct, &p.StartDate, &p.EndDate,
		&p.IsTemplate, &p.CloneBatchID,
		&p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.UpdatedBy, &p.DeletedAt)
	return p, err
}

func (s *Store) ListPhases(ctx context.Context, projectID string) ([]phase.Phase, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+phaseCols+`
		 FROM phases
		 WHERE project_id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		 ORDER BY phase_order`,
		projectID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	defer rows.Close()

	var phases []phase.Phase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

func (s *Store) GetPhase(ctx context.Context, id string) (*phase.Phase, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+phaseCols+`
		 FROM phases WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))

	p, err := scanPhase(row)
	if err != nil {
		return nil, notFoundWrap(err, "get phase %s", id)
	}
	return &p, nil
}

func (s *Store) CreatePhase(ctx context.Context, p *phase.Phase) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO phases (id, tenant_id, display_id, project_id, name, description, phase_order,
		                      predecessor_id, start_date, end_date, is_template, clone_batch_id, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		 RETURNING created_at, updated_at`,
		p.ID, tenantFromCtx(ctx), p.DisplayID, p.ProjectID, p.Name, p.Description, p.PhaseOrder,
		nullIfEmpty(p.PredecessorID), p.StartDate, p.EndDate, p.IsTemplate, nullIfEmpty(p.CloneBatchID), actorFromCtx(ctx))
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create phase: %w", err)
	}
	p.TenantID = tenantFromCtx(ctx)
	return nil
}

func (s *Store) UpdatePhase(ctx context.Context, p *phase.Phase) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE phases SET name = $2, description = $3, predecessor_id = $4, start_date = $5, end_date = $6,
		        updated_at = now(), updated_by = $7
		 WHERE id = $1 AND tenant_id = $8 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Description, nullIfEmpty(p.PredecessorID), p.StartDate, p.EndDate,
		actorFromCtx(ctx), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update phase %s", p.ID)
}

func (s *Store) SoftDeletePhase(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE phases SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete phase %s", id)
}

func (s *Store) UpdatePhaseOrder(ctx context.Context, id string, order int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE phases SET phase_order = $2, updated_at = now()
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, order, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update phase order %s", id)
}

func (s *Store) UpdatePhaseCompletion(ctx context.Context, id string, pct int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE phases SET completion_pct = $2, updated_at = now()
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, pct, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update phase completion %s", id)
}
