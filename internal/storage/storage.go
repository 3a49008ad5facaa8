package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// AttachmentStore wraps an ObjectStorage backend and owns the key scheme
// for complaint attachments.
type AttachmentStore struct {
	backend ObjectStorage
}

// NewAttachmentStore constructs an AttachmentStore for the provided backend.
func NewAttachmentStore(backend ObjectStorage) *AttachmentStore {
	return &AttachmentStore{backend: backend}
}

// NewKey derives a fresh object key for an uploaded file. The original
// filename contributes only its extension; the rest is a random UUID so
// keys never collide and never leak client paths.
func NewKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.NewString() + ext
}

// EnsureBucket ensures the configured bucket exists.
func (s *AttachmentStore) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an attachment under the given key.
func (s *AttachmentStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a reader for a stored attachment.
func (s *AttachmentStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Get(ctx, key)
}

// Delete removes a stored attachment.
func (s *AttachmentStore) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *AttachmentStore) Bucket() string {
	return s.backend.Bucket()
}
