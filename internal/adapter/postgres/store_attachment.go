package postgres

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/attachment"
)

// --- Documents ---

const documentCols = `id, tenant_id, entity_type, entity_id, file_name, content_type, size_bytes,
	storage_key, url, created_at, COALESCE(created_by::text, ''), deleted_at`

func scanDocument(row scannable) (attachment.Document, error) {
	var d attachment.Document
	err := row.Scan(&d.ID, &d.TenantID, &d.EntityType, &d.EntityID, &d.FileName, &d.ContentType, &d.SizeBytes,
		&d.StorageKey, &d.URL, &d.CreatedAt, &d.CreatedBy, &d.DeletedAt)
	return d, err
}

func (s *Store) ListDocuments(ctx context.Context, ref attachment.Ref) ([]attachment.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentCols+`
		 FROM documents
		 WHERE entity_type = $1 AND entity_id = $2 AND tenant_id = $3 AND deleted_at IS NULL
		 ORDER BY created_at DESC`,
		string(ref.EntityType), ref.EntityID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var documents []attachment.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, d)
	}
	return documents, rows.Err()
}

func (s *Store) GetDocument(ctx context.Context, id string) (*attachment.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentCols+`
		 FROM documents WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))

	d, err := scanDocument(row)
	if err != nil {
		return nil, notFoundWrap(err, "get document %s", id)
	}
	return &d, nil
}

func (s *Store) CreateDocument(ctx context.Context, d *attachment.Document) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO documents (id, tenant_id, entity_type, entity_id, file_name, content_type, size_bytes, storage_key, url, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		d.ID, tenantFromCtx(ctx), string(d.EntityType), d.EntityID, d.FileName, d.ContentType, d.SizeBytes,
		d.StorageKey, d.URL, actorFromCtx(ctx))
	if err := row.Scan(&d.CreatedAt); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	d.TenantID = tenantFromCtx(ctx)
	return nil
}

func (s *Store) SoftDeleteDocument(ctx context.Context, id, _ string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET deleted_at = now()
		 WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete document %s", id)
}

// --- Discussions ---

func (s *Store) ListDiscussions(ctx context.Context, ref attachment.Ref) ([]attachment.Discussion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, entity_type, entity_id, author_id, body, created_at, updated_at, deleted_at
		 FROM discussions
		 WHERE entity_type = $1 AND entity_id = $2 AND tenant_id = $3 AND deleted_at IS NULL
		 ORDER BY created_at`,
		string(ref.EntityType), ref.EntityID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list discussions: %w", err)
	}
	defer rows.Close()

	var discussions []attachment.Discussion
	for rows.Next() {
		var d attachment.Discussion
		if err := rows.Scan(&d.ID, &d.TenantID, &d.EntityType, &d.EntityID, &d.AuthorID, &d.Body,
			&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt); err != nil {
			return nil, err
		}
		discussions = append(discussions, d)
	}
	return discussions, rows.Err()
}

func (s *Store) CreateDiscussion(ctx context.Context, d *attachment.Discussion) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO discussions (id, tenant_id, entity_type, entity_id, author_id, body)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		d.ID, tenantFromCtx(ctx), string(d.EntityType), d.EntityID, d.AuthorID, d.Body)
	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("create discussion: %w", err)
	}
	d.TenantID = tenantFromCtx(ctx)
	return nil
}

func (s *Store) SoftDeleteDiscussion(ctx context.Context, id, _ string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE discussions SET deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete discussion %s", id)
}

// --- Notes ---

const noteCols = `id, tenant_id, entity_type, entity_id, body, pinned,
	created_at, COALESCE(created_by::text, ''), updated_at, COALESCE(updated_by::text, ''), deleted_at`

func scanNote(row scannable) (attachment.Note, error) {
	var n attachment.Note
	err := row.Scan(&n.ID, &n.TenantID, &n.EntityType, &n.EntityID, &n.Body, &n.Pinned,
		&n.CreatedAt, &n.CreatedBy, &n.UpdatedAt, &n.UpdatedBy, &n.DeletedAt)
	return n, err
}

func (s *Store) ListNotes(ctx context.Context, ref attachment.Ref) ([]attachment.Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+noteCols+`
		 FROM notes
		 WHERE entity_type = $1 AND entity_id = $2 AND tenant_id = $3 AND deleted_at IS NULL
		 ORDER BY pinned DESC, created_at DESC`,
		string(ref.EntityType), ref.EntityID, tenantFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []attachment.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) CreateNote(ctx context.Context, n *attachment.Note) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO notes (id, tenant_id, entity_type, entity_id, body, pinned, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 RETURNING created_at, updated_at`,
		n.ID, tenantFromCtx(ctx), string(n.EntityType), n.EntityID, n.Body, n.Pinned, actorFromCtx(ctx))
	if err := row.Scan(&n.CreatedAt, &n.UpdatedAt); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	n.TenantID = tenantFromCtx(ctx)
	return nil
}

func (s *Store) UpdateNote(ctx context.Context, n *attachment.Note) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notes SET body = $2, pinned = $3, updated_at = now(), updated_by = $4
		 WHERE id = $1 AND tenant_id = $5 AND deleted_at IS NULL`,
		n.ID, n.Body, n.Pinned, actorFromCtx(ctx), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "update note %s", n.ID)
}

func (s *Store) SoftDeleteNote(ctx context.Context, id, deletedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notes SET deleted_at = now(), updated_at = now(), updated_by = $2
		 WHERE id = $1 AND tenant_id = $3 AND deleted_at IS NULL`,
		id, nullIfEmpty(deletedBy), tenantFromCtx(ctx))
	return execExpectOne(tag, err, "delete note %s", id)
}
