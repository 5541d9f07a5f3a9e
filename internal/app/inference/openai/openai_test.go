package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "object-whisper/internal/app/errors"
	"object-whisper/internal/app/inference"
	"object-whisper/internal/config"
)

type captured struct {
	model    string
	language string
	format   string
	auth     string
}

func newAPIServer(t *testing.T, status int, got *captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.NoError(t, r.ParseMultipartForm(10<<20))
		got.model = r.FormValue("model")
		got.language = r.FormValue("language")
		got.format = r.FormValue("response_format")
		got.auth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"task":     "transcribe",
			"language": "english",
			"duration": 3.5,
			"text":     "Hello from the API.",
			"segments": []map[string]any{{"id": 0, "start": 0.0, "end": 3.5, "text": " Hello from the API."}},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample-1.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3 fake audio"), 0o644))
	return path
}

func TestTranscribe(t *testing.T) {
	var got captured
	server := newAPIServer(t, http.StatusOK, &got)
	model := New(NewClient("sk-test", server.URL+"/v1", time.Second*5), "whisper-1", "auto", nil)

	result, err := model.Transcribe(context.Background(), audioFile(t), inference.Options{Precision: inference.PrecisionFull})
	require.NoError(t, err)
	assert.Equal(t, "en", result.Language)
	assert.Equal(t, "Hello from the API.", result.Text)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, 3500*time.Millisecond, result.Segments[0].End)

	assert.Equal(t, "whisper-1", got.model)
	assert.Equal(t, "verbose_json", got.format)
	assert.Empty(t, got.language)
	assert.Equal(t, "Bearer sk-test", got.auth)
}

func TestTranscribeForcedLanguage(t *testing.T) {
	var got captured
	server := newAPIServer(t, http.StatusOK, &got)
	model := New(NewClient("sk-test", server.URL+"/v1", 0), "whisper-1", "", nil)

	_, err := model.Transcribe(context.Background(), audioFile(t), inference.Options{Language: "es"})
	require.NoError(t, err)
	assert.Equal(t, "es", got.language)
}

func TestTranscribeAPIError(t *testing.T) {
	var got captured
	server := newAPIServer(t, http.StatusTooManyRequests, &got)
	model := New(NewClient("sk-test", server.URL+"/v1", 0), "whisper-1", "", nil)

	_, err := model.Transcribe(context.Background(), audioFile(t), inference.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRemoteModel(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
		unknown  bool
	}{
		{name: "whisper-1", expected: "whisper-1"},
		{name: "large", expected: "whisper-1"},
		{name: "large-v3", expected: "whisper-1"},
		{name: "tiny", unknown: true},
		{name: "made-up", unknown: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RemoteModel(tc.name)
			if tc.unknown {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrUnknownModel))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestRegisteredLoader(t *testing.T) {
	model, err := inference.Load(context.Background(), config.ModelSettings{
		Backend:   config.BackendOpenAI,
		Name:      "large",
		OpenAIKey: "sk-test",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "whisper-1", model.Name())
	assert.True(t, inference.IsConcurrentSafe(model))

	_, err = inference.Load(context.Background(), config.ModelSettings{Backend: config.BackendOpenAI, Name: "large"}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidConfig))
}
