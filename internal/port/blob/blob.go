// Package blob defines the object-storage port for document file bytes.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrBucketMissing indicates the target bucket/container does not exist.
var ErrBucketMissing = errors.New("blob: bucket missing")

// ErrPermissionDenied indicates the storage credentials lack access.
var ErrPermissionDenied = errors.New("blob: permission denied")

// Store is the port interface for object storage. Put returns a retrievable
// URL for the stored object.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
