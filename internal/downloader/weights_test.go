package downloader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"object-whisper/internal/app/inference"
)

func sha(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func weightsServer(t *testing.T, payload []byte) (*httptest.Server, *int32) {
	t.Helper()
	var gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		if r.Method == http.MethodGet {
			atomic.AddInt32(&gets, 1)
			_, _ = w.Write(payload)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &gets
}

func TestDownloadWeights(t *testing.T) {
	payload := []byte("ggml weights")
	srv, gets := weightsServer(t, payload)

	model := inference.ResolvedModel{
		Name:   "tiny",
		Path:   filepath.Join(t.TempDir(), "models", "ggml-tiny.bin"),
		URL:    srv.URL + "/ggml-tiny.bin",
		SHA256: sha(payload),
	}
	var progress bytes.Buffer
	require.NoError(t, DownloadWeights(context.Background(), model, Options{Progress: &progress}))

	got, err := os.ReadFile(model.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.NoFileExists(t, model.Path+".part")
	assert.Equal(t, int32(1), atomic.LoadInt32(gets))

	// A second run finds a matching checksum and does not fetch again.
	require.NoError(t, DownloadWeights(context.Background(), model, Options{}))
	assert.Equal(t, int32(1), atomic.LoadInt32(gets))
}

func TestDownloadWeightsChecksumMismatch(t *testing.T) {
	srv, gets := weightsServer(t, []byte("corrupted"))

	model := inference.ResolvedModel{
		Name:   "tiny",
		Path:   filepath.Join(t.TempDir(), "ggml-tiny.bin"),
		URL:    srv.URL,
		SHA256: sha([]byte("expected")),
	}
	err := DownloadWeights(context.Background(), model, Options{Retries: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
	assert.NoFileExists(t, model.Path)
	assert.NoFileExists(t, model.Path+".part")
	assert.Equal(t, int32(2), atomic.LoadInt32(gets))
}

func TestDownloadWeightsSkipsSameSize(t *testing.T) {
	payload := []byte("0123456789")
	srv, gets := weightsServer(t, payload)

	path := filepath.Join(t.TempDir(), "ggml-base.en.bin")
	require.NoError(t, os.WriteFile(path, []byte("abcdefghij"), 0o644))

	model := inference.ResolvedModel{Name: "base.en", Path: path, URL: srv.URL, Exists: true}
	require.NoError(t, DownloadWeights(context.Background(), model, Options{}))
	assert.Equal(t, int32(0), atomic.LoadInt32(gets))
}

func TestDownloadWeightsReplacesDifferentSize(t *testing.T) {
	payload := []byte("0123456789")
	srv, gets := weightsServer(t, payload)

	path := filepath.Join(t.TempDir(), "ggml-base.en.bin")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))

	model := inference.ResolvedModel{Name: "base.en", Path: path, URL: srv.URL, Exists: true}
	require.NoError(t, DownloadWeights(context.Background(), model, Options{}))
	assert.Equal(t, int32(1), atomic.LoadInt32(gets))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadWeightsRequiresURL(t *testing.T) {
	err := DownloadWeights(context.Background(), inference.ResolvedModel{Name: "custom"}, Options{})
	require.Error(t, err)
}

func TestVerifyFileChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.bin")
	payload := []byte("object whisper")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	require.NoError(t, VerifyFileChecksum(path, sha(payload)))
	require.Error(t, VerifyFileChecksum(path, "deadbeef"))
}
