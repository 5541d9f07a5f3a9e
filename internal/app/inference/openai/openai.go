package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	apperrors "object-whisper/internal/app/errors"
	"object-whisper/internal/app/inference"
	"object-whisper/internal/config"
)

// Model transcribes through the OpenAI audio API.
type Model struct {
	client   *oai.Client
	model    string
	language string
	logger   *zap.Logger
}

// New creates a Model that sends requests for remoteModel through client.
func New(client *oai.Client, remoteModel, language string, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{client: client, model: remoteModel, language: language, logger: logger}
}

// NewClient builds an API client; an empty baseURL uses the public endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration) *oai.Client {
	cfg := oai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return oai.NewClientWithConfig(cfg)
}

// RemoteModel maps a model identifier to the one the API accepts.
func RemoteModel(name string) (string, error) {
	if name == oai.Whisper1 {
		return name, nil
	}
	if entry, ok := inference.LookupModel(name); ok && entry.Remote != "" {
		return entry.Remote, nil
	}
	return "", apperrors.Mark(fmt.Errorf("%q is not served by the OpenAI API (use %s or large)", name, oai.Whisper1), apperrors.ErrUnknownModel)
}

// Name returns the remote model identifier.
func (m *Model) Name() string {
	return m.model
}

// ConcurrentSafe reports true; requests are independent HTTP calls.
func (m *Model) ConcurrentSafe() bool {
	return true
}

// Close is a no-op.
func (m *Model) Close() error {
	return nil
}

// Transcribe uploads the file at path. Precision does not apply to the hosted model.
func (m *Model) Transcribe(ctx context.Context, path string, opts inference.Options) (*inference.Result, error) {
	if opts.Language == "" {
		opts.Language = m.language
	}

	req := oai.AudioRequest{
		Model:    m.model,
		FilePath: path,
		Format:   oai.AudioResponseFormatVerboseJSON,
	}
	if !opts.DetectLanguage() {
		req.Language = opts.Language
	}

	m.logger.Debug("Sending transcription request", zap.String("model", m.model), zap.Stringer("precision", opts.Precision))

	resp, err := m.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("createTranscription failed: %w", err)
	}

	result := &inference.Result{
		Language: inference.NormalizeLanguage(resp.Language),
		Text:     strings.TrimSpace(resp.Text),
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, inference.Segment{
			Start: time.Duration(seg.Start * float64(time.Second)),
			End:   time.Duration(seg.End * float64(time.Second)),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return result, nil
}

func init() {
	inference.Register(config.BackendOpenAI, load)
}

func load(_ context.Context, cfg config.ModelSettings, logger *zap.Logger) (inference.Model, error) {
	remote, err := RemoteModel(cfg.Name)
	if err != nil {
		return nil, err
	}
	if cfg.OpenAIKey == "" {
		return nil, apperrors.RequiredField("OPENAI_API_KEY")
	}
	client := NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.ServerTimeout)
	return New(client, remote, cfg.Language, logger), nil
}
