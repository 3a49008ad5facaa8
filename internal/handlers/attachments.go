package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/civitrack/apiserver/internal/storage"
	"github.com/go-chi/chi/v5"
)

// AttachmentHandler streams stored complaint attachments back under the
// /uploads prefix.
type AttachmentHandler struct {
	store *storage.AttachmentStore
}

// NewAttachmentHandler constructs a handler over the attachment store.
func NewAttachmentHandler(store *storage.AttachmentStore) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// AttachmentRouter registers the attachment download route.
func AttachmentRouter(r chi.Router, store *storage.AttachmentStore) {
	handler := NewAttachmentHandler(store)
	r.Get("/{key}", handler.Get)
}

// Get streams one attachment. Keys are opaque UUID-based names, so there
// is nothing to traverse.
func (h *AttachmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}

	key := chi.URLParam(r, "key")
	reader, err := h.store.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}
	defer reader.Close()

	if contentType := mime.TypeByExtension(filepath.Ext(key)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if _, err := io.Copy(w, reader); err != nil {
		// Response already started; nothing sensible to send.
		return
	}
}
