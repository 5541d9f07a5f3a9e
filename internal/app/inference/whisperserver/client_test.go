package whisperserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "object-whisper/internal/app/errors"
	"object-whisper/internal/app/inference"
	"object-whisper/internal/config"
)

type mockServer struct {
	*httptest.Server
	loadedModel atomic.Value
	language    atomic.Value
	format      atomic.Value
	inferStatus int
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	ms := &mockServer{inferStatus: http.StatusOK}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/load":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			ms.loadedModel.Store(r.FormValue("model"))
			w.Write([]byte(`{"status":"ok"}`))
		case "/inference":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			file, _, err := r.FormFile("file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("No file uploaded"))
				return
			}
			file.Close()
			ms.language.Store(r.FormValue("language"))
			ms.format.Store(r.FormValue("response_format"))

			if ms.inferStatus != http.StatusOK {
				w.WriteHeader(ms.inferStatus)
				w.Write([]byte("model crashed"))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(Response{
				Text:     " This is a test transcription. ",
				Task:     "transcribe",
				Language: "english",
				Duration: 5.2,
				Segments: []Segment{{ID: 0, Text: "This is a test transcription.", Start: 0, End: 5.2}},
			})
		case "/":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ms.Close)
	return ms
}

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample-1.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF fake audio"), 0o644))
	return path
}

func TestTranscribe(t *testing.T) {
	server := newMockServer(t)
	model, err := New(context.Background(), Config{BaseURL: server.URL + "/", ModelName: "base", ModelPath: "/models/ggml-base.bin"}, nil)
	require.NoError(t, err)
	defer model.Close()

	assert.Equal(t, "/models/ggml-base.bin", server.loadedModel.Load())
	assert.Equal(t, "base", model.Name())
	assert.True(t, inference.IsConcurrentSafe(model))

	result, err := model.Transcribe(context.Background(), audioFile(t), inference.Options{Precision: inference.PrecisionReduced})
	require.NoError(t, err)
	assert.Equal(t, "en", result.Language)
	assert.Equal(t, "This is a test transcription.", result.Text)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, 5200*time.Millisecond, result.Segments[0].End)

	assert.Equal(t, "auto", server.language.Load())
	assert.Equal(t, "verbose_json", server.format.Load())
}

func TestTranscribeForcedLanguage(t *testing.T) {
	server := newMockServer(t)
	model, err := New(context.Background(), Config{BaseURL: server.URL, Language: "fr"}, nil)
	require.NoError(t, err)

	_, err = model.Transcribe(context.Background(), audioFile(t), inference.Options{})
	require.NoError(t, err)
	assert.Equal(t, "fr", server.language.Load())
	assert.Nil(t, server.loadedModel.Load(), "no load without a model path")
}

func TestTranscribeServerError(t *testing.T) {
	server := newMockServer(t)
	server.inferStatus = http.StatusInternalServerError
	model, err := New(context.Background(), Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = model.Transcribe(context.Background(), audioFile(t), inference.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model crashed")
}

func TestTranscribeMissingFile(t *testing.T) {
	server := newMockServer(t)
	model, err := New(context.Background(), Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = model.Transcribe(context.Background(), filepath.Join(t.TempDir(), "gone.wav"), inference.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestNewLoadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("model not found"))
	}))
	defer server.Close()

	_, err := New(context.Background(), Config{BaseURL: server.URL, ModelPath: "/models/ggml-huge.bin"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load model failed with status 404")
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	require.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	server := newMockServer(t)
	model, err := New(context.Background(), Config{BaseURL: server.URL}, nil)
	require.NoError(t, err)
	assert.NoError(t, model.HealthCheck(context.Background()))
}

func TestRegisteredLoader(t *testing.T) {
	server := newMockServer(t)
	model, err := inference.Load(context.Background(), config.ModelSettings{
		Backend:   config.BackendWhisperServer,
		Name:      "large",
		ModelDir:  "/srv/models",
		ServerURL: server.URL,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "large-v3", model.Name())
	assert.Equal(t, "/srv/models/ggml-large-v3.bin", server.loadedModel.Load())

	_, err = inference.Load(context.Background(), config.ModelSettings{
		Backend:       config.BackendWhisperServer,
		Name:          "large",
		ModelDir:      "/srv/models",
		ServerURL:     "http://127.0.0.1:1",
		ServerTimeout: time.Second,
	}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrModelLoad))
}
