package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelierhq/atelier/internal/domain/workset"
)

const setCols = `id, tenant_id, display_id, COALESCE(client_id::text, ''), COALESCE(project_id::text, ''),
	COALESCE(phase_id::text, ''), name, description, set_order, urgency, importance, priority,
	completion_pct, show_in_client_portal, is_template, COALESCE(clone_batch_id::text, ''),
	created_at, COALESCE(created_by::text, ''), updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanSet(row scannable) (workset.Set, error) {
	var st workset.Set
	err := row.Scan(&st.ID, &st.TenantID, &st.DisplayID, &st.ClientID, &st.ProjectID,
		&st.PhaseID, &st.Name, &st.Description, &st.SetOrder, &st.Urgency, &st.Importance, &st.Priority,
		&st.CompletionPct, &st.ShowInClientPortal, &st.IsTemplate, &st.CloneBatchID,
		&st.CreatedAt, &st.CreatedBy, &st.UpdatedAt, &st.UpdatedBy, &st.DeletedAt)
	return st, err
}

func (s *Store) ListSets(ctx context.Context, f workset.Filter) ([]workset.Set, error) {
	where := []string{"tenant_id = $1", "deleted_at IS NULL"}
	if !f.IncludeTemplates {
		where = append(where, "NOT is_template")
	}
	args := []any{tenantFromCtx(ctx)}
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if f.PhaseID != "" {
		args = append(args, f.PhaseID)
		where = append(where, fmt.Sprintf("phase_id = $%d", len(args)))
	}
	if f.PortalOnly {
		where = append(where, "show_in_client_portal")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+setCols+` FROM sets WHERE `+strings.Join(where, " AND ")+` ORDER BY set_order, created_at`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []workset.Set
	for rows.Next() {
		st, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, st)
	}
	return sets, rows.Err()
}

func (s *Store) GetSet(ctx context.Context, id string) (*workset.Set, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+setCols+`
		 FROM sets WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))

	st, err := scanSet(row)
	if err != nil {
		return nil, notFoundWrap(err, "get set %s", id)
	}
	return &st, nil
}

func (s *Store) CreateSet(ctx context.Context, st *workset.Set) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sets (id, tenant_id, display_id, client_id, project_id, phase_id, name, description,
		                    set_order, urgency, importance, priority, show_in_client_portal, is_template, clone_batch_id,
		                    created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
		 RETURNING created_at, updated_at`,
		st.ID, tenantFromCtx(ctx), st.DisplayID, nullIfEmpty(st.ClientID), nullIfEmpty(st.ProjectID),
		nullIfEmpty(st.PhaseID), st.Name, st.Description,
		st.SetOrder, string(st.Urgency), string(st.Importance), st.Priority, st.ShowInClientPortal,
		st.IsTemplate, nullIfEmpty(st.CloneBatchID), actorFromCtx(ctx))
	if err := row.Scan(&st.CreatedAt, &st.UpdatedAt); err != nil {
		return fmt.Errorf("create set: %w", err)
	}
	st.TenantID = tenantFromCtx(ctx)
	return nil
}

func (s *Store) UpdateSet(ctx context.Context, st *workset.Set) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sets SET name = $2, description = $3, phase_id = $4, urgency = $5, importance = $6,
		        priority = $7, show_in_client_portal = $8, updated_at = now(), updated_by = $9
		 WHERE id = $1 AND tenant_id = $10 AND deleted_at IS NULL`,
		st.ID, st.Name, st.Description, nullIfEmpty(st.PhaseID), string(st.Urgency), string(st.Importance),
		st.Priority, st.ShowInClientPortal, actorFromCtx(ctx), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update set %s", st.ID)
}

func (s *Store) SoftDeleteSet(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sets SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete set %s", id)
}

func (s *Store) UpdateSetOrder(ctx context.Context, id string, order int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sets SET set_order = $2, updated_at = now()
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, order, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update set order %s", id)
}

func (s *Store) UpdateSetCompletion(ctx context.Context, id string, pct int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sets SET completion_pct = $2, updated_at = now()
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, pct, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update set completion %s", id)
}
