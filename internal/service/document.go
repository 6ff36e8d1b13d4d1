package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/atelierhq/atelier/internal/domain"
	"github.com/atelierhq/atelier/internal/domain/attachment"
	"github.com/atelierhq/atelier/internal/middleware"
	"github.com/atelierhq/atelier/internal/port/blob"
	"github.com/atelierhq/atelier/internal/port/database"
	"github.com/atelierhq/atelier/internal/resilience"
)

// maxDocumentBytes caps a single upload at 100 MiB.
const maxDocumentBytes = 100 << 20

// DocumentService manages the polymorphic attachments: documents (file
// bytes in object storage plus a metadata row), discussions, and notes.
type DocumentService struct {
	store   database.Store
	blobs   blob.Store
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// NewDocumentService creates a new DocumentService. breaker may be nil to
// skip circuit protection on the storage backend.
func NewDocumentService(store database.Store, blobs blob.Store, breaker *resilience.Breaker) *DocumentService {
	return &DocumentService{
		store:   store,
		blobs:   blobs,
		breaker: breaker,
		retry:   resilience.DefaultRetry,
	}
}

// UploadRequest is the input for storing a document.
type UploadRequest struct {
	Ref         attachment.Ref
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// Validate checks the UploadRequest.
func (r *UploadRequest) Validate() error {
	if err := r.Ref.Validate(); err != nil {
		return err
	}
	if r.FileName == "" {
		return domain.Validationf("file_name", "is required")
	}
	if r.SizeBytes <= 0 {
		return domain.Validationf("size_bytes", "must be positive")
	}
	if r.SizeBytes > maxDocumentBytes {
		return domain.Validationf("size_bytes", "exceeds the %d byte limit", maxDocumentBytes)
	}
	if r.Body == nil {
		return domain.Validationf("body", "is required")
	}
	return nil
}

// ListDocuments returns the documents attached to an entity.
func (s *DocumentService) ListDocuments(ctx context.Context, ref attachment.Ref) ([]attachment.Document, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, ref)
}

// GetDocument returns a document row by id.
func (s *DocumentService) GetDocument(ctx context.Context, id string) (*attachment.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Upload writes the file bytes to object storage and records the metadata
// row. The storage write goes through the circuit breaker; a breaker trip
// or storage failure leaves no row behind.
func (s *DocumentService) Upload(ctx context.Context, req *UploadRequest) (*attachment.Document, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := newID()
	key := storageKey(ctx, req.Ref, id, req.FileName)

	url, err := s.putBlob(ctx, key, req.Body, req.SizeBytes, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store document bytes: %w", err)
	}

	d := &attachment.Document{
		ID:          id,
		EntityType:  req.Ref.EntityType,
		EntityID:    req.Ref.EntityID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		StorageKey:  key,
		URL:         url,
	}
	if err := s.store.CreateDocument(ctx, d); err != nil {
		// The metadata row failed; reclaim the orphaned object.
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			slog.Warn("orphaned blob after failed document insert", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("record document: %w", err)
	}
	return d, nil
}

// Download streams a document's bytes from object storage.
func (s *DocumentService) Download(ctx context.Context, id string) (*attachment.Document, io.ReadCloser, error) {
	d, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, d.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch document bytes: %w", err)
	}
	return d, rc, nil
}

// DeleteDocument soft-deletes the row and removes the stored object. Blob
// removal is best-effort: the row is the source of truth and the object is
// unreachable once the row is gone.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	d, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteDocument(ctx, id, actorID(ctx)); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, d.StorageKey); err != nil {
		slog.Warn("document blob removal failed", "key", d.StorageKey, "error", err)
	}
	return nil
}

// putBlob wraps the storage write in retry and, when configured, the
// circuit breaker. Retries only fire when the body can be re-read.
func (s *DocumentService) putBlob(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	put := func() (string, error) {
		if s.breaker == nil {
			return s.blobs.Put(ctx, key, body, size, contentType)
		}
		var url string
		err := s.breaker.Execute(func() error {
			var perr error
			url, perr = s.blobs.Put(ctx, key, body, size, contentType)
			return perr
		})
		return url, err
	}

	if seeker, ok := body.(io.Seeker); ok {
		var url string
		err := resilience.Retry(ctx, s.retry, func() error {
			if _, serr := seeker.Seek(0, io.SeekStart); serr != nil {
				return serr
			}
			var perr error
			url, perr = put()
			return perr
		})
		return url, err
	}
	return put()
}

// --- Discussions ---

// ListDiscussions returns an entity's discussion thread, oldest first.
func (s *DocumentService) ListDiscussions(ctx context.Context, ref attachment.Ref) ([]attachment.Discussion, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListDiscussions(ctx, ref)
}

// CreateDiscussion posts a comment on an entity as the acting user.
func (s *DocumentService) CreateDiscussion(ctx context.Context, ref attachment.Ref, body string) (*attachment.Discussion, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, domain.Validationf("body", "is required")
	}
	d := &attachment.Discussion{
		ID:         newID(),
		EntityType: ref.EntityType,
		EntityID:   ref.EntityID,
		AuthorID:   actorID(ctx),
		Body:       body,
	}
	if err := s.store.CreateDiscussion(ctx, d); err != nil {
		return nil, fmt.Errorf("create discussion: %w", err)
	}
	return d, nil
}

// DeleteDiscussion soft-deletes a comment.
func (s *DocumentService) DeleteDiscussion(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	return s.store.SoftDeleteDiscussion(ctx, id, actorID(ctx))
}

// --- Notes ---

// ListNotes returns an entity's notes, pinned first.
func (s *DocumentService) ListNotes(ctx context.Context, ref attachment.Ref) ([]attachment.Note, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListNotes(ctx, ref)
}

// CreateNote attaches a note to an entity.
func (s *DocumentService) CreateNote(ctx context.Context, ref attachment.Ref, body string, pinned bool) (*attachment.Note, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, domain.Validationf("body", "is required")
	}
	n := &attachment.Note{
		ID:         newID(),
		EntityType: ref.EntityType,
		EntityID:   ref.EntityID,
		Body:       body,
		Pinned:     pinned,
	}
	if err := s.store.CreateNote(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

// UpdateNote rewrites a note's body and pinned flag.
func (s *DocumentService) UpdateNote(ctx context.Context, id, body string, pinned bool) (*attachment.Note, error) {
	if err := authorizeWrite(ctx); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, domain.Validationf("body", "is required")
	}
	n := &attachment.Note{ID: id, Body: body, Pinned: pinned}
	if err := s.store.UpdateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// DeleteNote soft-deletes a note.
func (s *DocumentService) DeleteNote(ctx context.Context, id string) error {
	if err := authorizeWrite(ctx); err != nil {
		return err
	}
	return s.store.SoftDeleteNote(ctx, id, actorID(ctx))
}

// storageKey lays out objects as tenant/entity_type/entity_id/doc_id/name so
// a bucket listing reads as the hierarchy.
func storageKey(ctx context.Context, ref attachment.Ref, docID, fileName string) string {
	tenant := "global"
	if idc := middleware.IdentityFromContext(ctx); idc != nil && idc.TenantID != "" {
		tenant = idc.TenantID
	}
	return path.Join(tenant, string(ref.EntityType), ref.EntityID, docID, fileName)
}
