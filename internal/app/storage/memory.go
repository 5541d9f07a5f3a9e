package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is an in-process ObjectStore for tests and dry runs.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
	errs    map[string]error
}

// NewMemory creates an empty in-memory store for bucket.
func NewMemory(bucket string) *Memory {
	return &Memory{
		bucket:  bucket,
		objects: make(map[string][]byte),
		errs:    make(map[string]error),
	}
}

// Put stores a copy of data under key.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
}

// FailWith makes every GetObject for key return err.
func (m *Memory) FailWith(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[key] = err
}

// GetObject returns a copy of the stored bytes.
func (m *Memory) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get object %s/%s: %w", m.bucket, key, ErrObjectNotFound)
	}
	return append([]byte(nil), data...), nil
}

// PutObject implements Uploader.
func (m *Memory) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.Put(key, buf.Bytes())
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Bucket returns the bucket name.
func (m *Memory) Bucket() string {
	return m.bucket
}
