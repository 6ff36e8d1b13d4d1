package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/atelierhq/atelier/internal/domain/attachment"
	"github.com/atelierhq/atelier/internal/service"
)

// refFromRequest builds the attachment target from the /{entityType}/{entityID}
// URL segments. Validation happens in the service.
func refFromRequest(r *http.Request) attachment.Ref {
	return attachment.Ref{
		EntityType: attachment.EntityType(urlParam(r, "entityType")),
		EntityID:   urlParam(r, "entityID"),
	}
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	items, err := h.documents.ListDocuments(r.Context(), refFromRequest(r))
	if err != nil {
		writeDomainError(w, err, "entity not found")
		return
	}
	if items == nil {
		items = []attachment.Document{}
	}
	writeJSON(w, http.StatusOK, items)
}

// UploadDocument accepts a multipart form with a "file" part. The multipart
// temp file is seekable, so the storage write can be retried.
func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(r.Context(), &service.UploadRequest{
		Ref:         refFromRequest(r),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Body:        file,
	})
	if err != nil {
		writeDomainError(w, err, "entity not found")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	handleGet(h.documents.GetDocument, "document not found")(w, r)
}

// DownloadDocument streams the stored bytes back to the caller.
func (h *Handlers) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.documents.Download(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "document not found")
		return
	}
	defer rc.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("document stream interrupted", "document_id", doc.ID, "error", err)
	}
}

func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.documents.DeleteDocument, "document not found")(w, r)
}

// ---------------------------------------------------------------------------
// Discussions
// ---------------------------------------------------------------------------

func (h *Handlers) ListDiscussions(w http.ResponseWriter, r *http.Request) {
	items, err := h.documents.ListDiscussions(r.Context(), refFromRequest(r))
	if err != nil {
		writeDomainError(w, err, "entity not found")
		return
	}
	if items == nil {
		items = []attachment.Discussion{}
	}
	writeJSON(w, http.StatusOK, items)
}

type discussionRequest struct {
	Body string `json:"body"`
}

func (h *Handlers) CreateDiscussion(w http.ResponseWriter, r *http.Request) {
	ref := refFromRequest(r)
	req, ok := readJSON[discussionRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	d, err := h.documents.CreateDiscussion(r.Context(), ref, req.Body)
	if err != nil {
		writeDomainError(w, err, "entity not found")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handlers) DeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.documents.DeleteDiscussion, "discussion not found")(w, r)
}

// ---------------------------------------------------------------------------
// Notes
// ---------------------------------------------------------------------------

func (h *Handlers) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.documents.ListNotes(r.Context(), refFromRequest(r))
	if err != nil {
		writeDomainError(w, err, "entity not found")
		return
	}
	if items == nil {
		items = []attachment.Note{}
	}
	writeJSON(w, http.StatusOK, items)
}

type noteRequest struct {
	Body   string `json:"body"`
	Pinned bool   `json:"pinned,omitempty"`
}

func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	ref := refFromRequest(r)
	req, ok := readJSON[noteRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	n, err := h.documents.CreateNote(r.Context(), ref, req.Body, req.Pinned)
	if err != nil {
		writeDomainError(w, err, "entity not found")
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handlers) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[noteRequest](w, r, h.bodyLimit)
	if !ok {
		return
	}
	n, err := h.documents.UpdateNote(r.Context(), id, req.Body, req.Pinned)
	if err != nil {
		writeDomainError(w, err, "note not found")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.documents.DeleteNote, "note not found")(w, r)
}
