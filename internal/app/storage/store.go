package storage

import (
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
)

// ErrObjectNotFound is returned by stores when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore fetches whole objects by key from a single bucket.
type ObjectStore interface {
	// GetObject reads the complete object into memory. The underlying
	// response is closed before GetObject returns.
	GetObject(ctx context.Context, key string) ([]byte, error)
	// Bucket returns the bucket the store reads from.
	Bucket() string
}

// Uploader stores objects.
type Uploader interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IsNotFound reports whether err means the object (or its bucket) is missing.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == minio.NoSuchKey || resp.Code == minio.NoSuchBucket
	}
	return false
}
