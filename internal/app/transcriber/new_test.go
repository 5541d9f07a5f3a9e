package transcriber_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "object-whisper/internal/app/errors"
	"object-whisper/internal/app/inference"
	"object-whisper/internal/app/transcriber"
	"object-whisper/internal/config"
)

type closingModel struct {
	name   string
	closed bool
}

func (m *closingModel) Name() string { return m.name }
func (m *closingModel) Close() error { m.closed = true; return nil }
func (m *closingModel) Transcribe(context.Context, string, inference.Options) (*inference.Result, error) {
	return &inference.Result{Language: "en"}, nil
}

var lastLoaded *closingModel

func init() {
	inference.Register("transcriber-test", func(_ context.Context, cfg config.ModelSettings, _ *zap.Logger) (inference.Model, error) {
		if _, ok := inference.LookupModel(cfg.Name); !ok {
			return nil, apperrors.Mark(apperrors.Newf("%q", cfg.Name), apperrors.ErrUnknownModel)
		}
		lastLoaded = &closingModel{name: cfg.Name}
		return lastLoaded, nil
	})
}

func testSettings() *config.Settings {
	s := config.Defaults()
	s.Storage = config.StorageSettings{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "audio",
		Region:    "us-east-1",
	}
	s.Model.Backend = "transcriber-test"
	s.Accelerator.Mode = "none"
	return s
}

func TestNew(t *testing.T) {
	wf, err := transcriber.New(context.Background(), testSettings(), nil)
	require.NoError(t, err)
	assert.Equal(t, "large", wf.Model().Name())
	assert.Equal(t, "audio", wf.Store().Bucket())
	require.NoError(t, wf.Close())
	assert.True(t, lastLoaded.closed)
}

func TestNewErrors(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*config.Settings)
		sentinel error
		closed   bool
	}{
		{
			name:     "unknown model",
			mutate:   func(s *config.Settings) { s.Model.Name = "gigantic" },
			sentinel: apperrors.ErrUnknownModel,
		},
		{
			name:     "unregistered backend",
			mutate:   func(s *config.Settings) { s.Model.Backend = "torch" },
			sentinel: apperrors.ErrBackendNotFound,
		},
		{
			name:     "invalid storage endpoint",
			mutate:   func(s *config.Settings) { s.Storage.Endpoint = "localhost:9000/path" },
			sentinel: apperrors.ErrStorageClient,
			closed:   true,
		},
		{
			name:     "invalid accelerator mode",
			mutate:   func(s *config.Settings) { s.Accelerator.Mode = "tpu" },
			sentinel: apperrors.ErrInvalidConfig,
			closed:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lastLoaded = nil
			s := testSettings()
			tc.mutate(s)

			_, err := transcriber.New(context.Background(), s, nil)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tc.sentinel), "got %v", err)
			if tc.closed {
				require.NotNil(t, lastLoaded)
				assert.True(t, lastLoaded.closed, "model is released when construction fails")
			}
		})
	}

	_, err := transcriber.New(context.Background(), nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingConfig))
}

func TestResultDescription(t *testing.T) {
	ok := transcriber.Result{Language: "en", Text: "hello"}
	assert.Equal(t, "hello", ok.Description())
	assert.False(t, ok.RetrievalFailed())

	failed := transcriber.Result{Language: transcriber.ErrorLanguage, Text: transcriber.RetrievalFailureText, Err: apperrors.New("bucket missing")}
	assert.True(t, failed.RetrievalFailed())
	assert.Equal(t, "Could not retrieve file: bucket missing", failed.Description())
}
