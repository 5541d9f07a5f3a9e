package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeS3 serves path-style GET/HEAD requests for a single bucket.
func newFakeS3(t *testing.T, bucket string, objects map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		b, key, _ := strings.Cut(path, "/")
		if b != bucket {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if key == "" {
			// BucketExists
			w.WriteHeader(http.StatusOK)
			return
		}

		data, ok := objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
					`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message>` +
					`<Key>` + key + `</Key><BucketName>` + bucket + `</BucketName></Error>`))
			}
			return
		}

		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			w.Write(data)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestMinioStore(t *testing.T, srv *httptest.Server, bucket string) *MinioStore {
	t.Helper()
	store, err := NewMinioStore(MinioConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    bucket,
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return store
}

func TestMinioStoreGetObject(t *testing.T) {
	payload := []byte("RIFF....WAVEfmt fake audio")
	srv := newFakeS3(t, "audio", map[string][]byte{"sample-1": payload})
	store := newTestMinioStore(t, srv, "audio")

	data, err := store.GetObject(context.Background(), "sample-1")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "audio", store.Bucket())
}

func TestMinioStoreGetObjectMissing(t *testing.T) {
	srv := newFakeS3(t, "audio", map[string][]byte{})
	store := newTestMinioStore(t, srv, "audio")

	_, err := store.GetObject(context.Background(), "missing-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "expected not found, got %v", err)
	assert.Contains(t, err.Error(), "missing-1")
}

func TestMinioStoreGetObjectUnreachable(t *testing.T) {
	srv := newFakeS3(t, "audio", nil)
	store := newTestMinioStore(t, srv, "audio")
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := store.GetObject(ctx, "sample-1")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestMinioStorePing(t *testing.T) {
	srv := newFakeS3(t, "audio", nil)

	require.NoError(t, newTestMinioStore(t, srv, "audio").Ping(context.Background()))

	err := newTestMinioStore(t, srv, "other").Ping(context.Background())
	require.Error(t, err)
}

func TestNewMinioStoreInvalidConfig(t *testing.T) {
	_, err := NewMinioStore(MinioConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)

	_, err = NewMinioStore(MinioConfig{Endpoint: "localhost:9000/path", Bucket: "audio"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create MinIO client")
}

func TestMinioStoreObjectURL(t *testing.T) {
	store, err := NewMinioStore(MinioConfig{Endpoint: "minio.local:9000", Bucket: "audio", UseSSL: true})
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local:9000/audio/a/b.wav", store.ObjectURL("a/b.wav"))
}
