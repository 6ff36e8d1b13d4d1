package postgres

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/pitch"
)

const pitchCols = `id, tenant_id, display_id, set_id, name, summary, pitch_order,
	is_approved, COALESCE(approved_by::text, ''), approved_at, completion_pct,
	is_template, COALESCE(clone_batch_id::text, ''),
	created_at, COALESCE(created_by::text, ''), updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanPitch(row scannable) (pitch.Pitch, error) {
	var p pitch.Pitch
	err := row.Scan(&p.ID, &p.TenantID, &p.DisplayID, &p.SetID, &p.Name, &p.Summary, &p.PitchOrder,
		&p.IsApproved, &p.ApprovedBy, &p.ApprovedAt, &p.CompletionPct,
		&p.IsTemplate, &p.CloneBatchID,
		&p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.UpdatedBy, &p.DeletedAt)
	return p, err
}

func (s *Store) ListPitches(ctx context.Context, setID string) ([]pitch.Pitch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pitchCols+`
		 FROM pitches
		 WHERE set_id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		 ORDER BY pitch_order`,
		setID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list pitches: %w", err)
	}
	defer rows.Close()

	var pitches []pitch.Pitch
	for rows.Next() {
		p, err := scanPitch(rows)
		if err != nil {
			return nil, err
		}
		pitches = append(pitches, p)
	}
	return pitches, rows.Err()
}

func (s *Store) GetPitch(ctx context.Context, id string) (*pitch.Pitch, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pitchCols+`
		 FROM pitches WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))

	p, err := scanPitch(row)
	if err != nil {
		return nil, notFoundWrap(err, "get pitch %s", id)
	}
	return &p, nil
}

func (s *Store) CreatePitch(ctx context.Context, p *pitch.Pitch) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO pitches (id, tenant_id, display_id, set_id, name, summary, pitch_order,
		                       is_template, clone_batch_id, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		 RETURNING created_at, updated_at`,
		p.ID, tenantFromCtx(ctx), p.DisplayID, p.SetID, p.Name, p.Summary, p.PitchOrder,
		p.IsTemplate, nullIfEmpty(p.CloneBatchID), actorFromCtx(ctx))
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("create pitch: %w", err)
	}
	p.TenantID = tenantFromCtx(ctx)
	return nil
}

// UpdatePitch never writes set_id: a pitch cannot move between sets.
func (s *Store) UpdatePitch(ctx context.Context, p *pitch.Pitch) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pitches SET name = $2, summary = $3, is_approved = $4, approved_by = $5, approved_at = $6,
		        updated_at = now(), updated_by = $7
		 WHERE id = $1 AND tenant_id = $8 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Summary, p.IsApproved, nullIfEmpty(p.ApprovedBy), p.ApprovedAt,
		actorFromCtx(ctx), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update pitch %s", p.ID)
}

func (s *Store) SoftDeletePitch(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pitches SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete pitch %s", id)
}

func (s *Store) UpdatePitchOrder(ctx context.Context, id string, order int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pitches SET pitch_order = $2, updated_at = now()
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, order, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update pitch order %s", id)
}

func (s *Store) UpdatePitchCompletion(ctx context.Context, id string, pct int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE pitches SET completion_pct = $2, updated_at = now()
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, pct, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update pitch completion %s", id)
}
