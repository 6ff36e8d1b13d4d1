package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelierhq/atelier/internal/domain/requirement"
)

const requirementCols = `id, tenant_id, display_id, set_id, COALESCE(pitch_id::text, ''), title, details, status,
	req_order, urgency, importance, priority, COALESCE(assignee_id::text, ''), due_date,
	requires_review, review_status, COALESCE(reviewer_id::text, ''), reviewed_at,
	is_task, show_in_client_portal, is_template, COALESCE(clone_batch_id::text, ''),
	created_at, COALESCE(created_by::text, ''), updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanRequirement(row scannable) (requirement.Requirement, error) {
	var r requirement.Requirement
	err := row.Scan(&r.ID, &r.TenantID, &r.DisplayID, &r.SetID, &r.PitchID, &r.Title, &r.Details, &r.Status,
		&r.ReqOrder, &r.Urgency, &r.Importance, &r.Priority, &r.AssigneeID, &r.DueDate,
		&r.RequiresReview, &r.ReviewStatus, &r.ReviewerID, &r.ReviewedAt,
		&r.IsTask, &r.ShowInClientPortal, &r.IsTemplate, &r.CloneBatchID,
		&r.CreatedAt, &r.CreatedBy, &r.UpdatedAt, &r.UpdatedBy, &r.DeletedAt)
	return r, err
}

func (s *Store) ListRequirements(ctx context.Context, f requirement.Filter) ([]requirement.Requirement, error) {
	where := []string{"tenant_id = $1", "deleted_at IS NULL"}
	if !f.IncludeTemplates {
		where = append(where, "NOT is_template")
	}
	args := []any{tenantFromCtx(ctx)}
	if f.SetID != "" {
		args = append(args, f.SetID)
		where = append(where, fmt.Sprintf("set_id = $%d", len(args)))
	}
	if f.PitchID != "" {
		args = append(args, f.PitchID)
		where = append(where, fmt.Sprintf("pitch_id = $%d", len(args)))
	}
	if f.AssigneeID != "" {
		args = append(args, f.AssigneeID)
		where = append(where, fmt.Sprintf("assignee_id = $%d", len(args)))
	}
	if f.TasksOnly {
		where = append(where, "is_task")
	}
	if f.PortalOnly {
		where = append(where, "show_in_client_portal")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+requirementCols+` FROM requirements WHERE `+strings.Join(where, " AND ")+` ORDER BY req_order, created_at`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	var requirements []requirement.Requirement
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, r)
	}
	return requirements, rows.Err()
}

func (s *Store) GetRequirement(ctx context.Context, id string) (*requirement.Requirement, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+requirementCols+`
		 FROM requirements WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))

	r, err := scanRequirement(row)
	if err != nil {
		return nil, notFoundWrap(err, "get requirement %s", id)
	}
	return &r, nil
}

func (s *Store) CreateRequirement(ctx context.Context, r *requirement.Requirement) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO requirements (id, tenant_id, display_id, set_id, pitch_id, title, details, status,
		                            req_order, urgency, importance, priority, assignee_id, due_date,
		                            requires_review, review_status, is_task, show_in_client_portal,
		                            is_template, clone_batch_id, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $21)
		 RETURNING created_at, updated_at`,
		r.ID, tenantFromCtx(ctx), r.DisplayID, r.SetID, nullIfEmpty(r.PitchID), r.Title, r.Details, string(r.Status),
		r.ReqOrder, string(r.Urgency), string(r.Importance), r.Priority, nullIfEmpty(r.AssigneeID), r.DueDate,
		r.RequiresReview, string(r.ReviewStatus), r.IsTask, r.ShowInClientPortal,
		r.IsTemplate, nullIfEmpty(r.CloneBatchID), actorFromCtx(ctx))
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return fmt.Errorf("create requirement: %w", err)
	}
	r.TenantID = tenantFromCtx(ctx)
	return nil
}

// UpdateRequirement never writes set_id: the parent set is immutable.
func (s *Store) UpdateRequirement(ctx context.Context, r *requirement.Requirement) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE requirements SET pitch_id = $2, title = $3, details = $4, status = $5,
		        urgency = $6, importance = $7, priority = $8, assignee_id = $9, due_date = $10,
		        requires_review = $11, review_status = $12, reviewer_id = $13, reviewed_at = $14,
		        is_task = $15, show_in_client_portal = $16, updated_at = now(), updated_by = $17
		 WHERE id = $1 AND tenant_id = $18 AND deleted_at IS NULL`,
		r.ID, nullIfEmpty(r.PitchID), r.Title, r.Details, string(r.Status),
		string(r.Urgency), string(r.Importance), r.Priority, nullIfEmpty(r.AssigneeID), r.DueDate,
		r.RequiresReview, string(r.ReviewStatus), nullIfEmpty(r.ReviewerID), r.ReviewedAt,
		r.IsTask, r.ShowInClientPortal, actorFromCtx(ctx), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update requirement %s", r.ID)
}

func (s *Store) SoftDeleteRequirement(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE requirements SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete requirement %s", id)
}

func (s *Store) UpdateRequirementOrder(ctx context.Context, id string, order int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE requirements SET req_order = $2, updated_at = now()
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, order, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update requirement order %s", id)
}
