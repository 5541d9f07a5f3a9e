package whisperserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"object-whisper/internal/app/inference"
)

// Config represents configuration for the whisper-server HTTP API
type Config struct {
	BaseURL       string            // Base URL of whisper-server (e.g., "http://192.168.1.100:8080")
	InferencePath string            // Inference endpoint path (default: "/inference")
	LoadPath      string            // Model loading endpoint path (default: "/load")
	Timeout       time.Duration     // Request timeout
	Language      string            // Default language code, "auto" to detect
	ModelName     string            // Name reported by Model.Name
	ModelPath     string            // Weights path on the server; loaded at construction when set
	CustomHeaders map[string]string // Extra HTTP headers
}

// Response is the verbose_json body returned by whisper-server
type Response struct {
	Text                        string    `json:"text,omitempty"`
	Task                        string    `json:"task,omitempty"`
	Language                    string    `json:"language,omitempty"`
	Duration                    float64   `json:"duration,omitempty"`
	Segments                    []Segment `json:"segments,omitempty"`
	DetectedLanguage            string    `json:"detected_language,omitempty"`
	DetectedLanguageProbability float64   `json:"detected_language_probability,omitempty"`
}

// Segment represents a segment in a verbose response
type Segment struct {
	ID    int     `json:"id"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Model transcribes through a remote whisper-server.
type Model struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// New creates a whisper-server model and, when cfg.ModelPath is set, asks
// the server to load those weights.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Model, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("whisper server base URL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.InferencePath == "" {
		cfg.InferencePath = "/inference"
	}
	if cfg.LoadPath == "" {
		cfg.LoadPath = "/load"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "whisper-server"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Model{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}

	if cfg.ModelPath != "" {
		if err := m.LoadModel(ctx, cfg.ModelPath); err != nil {
			return nil, err
		}
		logger.Info("Model loaded on whisper server", zap.String("url", cfg.BaseURL), zap.String("path", cfg.ModelPath))
	}

	return m, nil
}

// Name returns the configured model name.
func (m *Model) Name() string {
	return m.config.ModelName
}

// ConcurrentSafe reports true; the server queues requests itself.
func (m *Model) ConcurrentSafe() bool {
	return true
}

// Close releases idle connections.
func (m *Model) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

// Transcribe uploads the file at path and parses the verbose_json response.
// Precision is chosen by the server and only logged here.
func (m *Model) Transcribe(ctx context.Context, path string, opts inference.Options) (*inference.Result, error) {
	if opts.Language == "" {
		opts.Language = m.config.Language
	}

	body, contentType, err := m.createMultipartForm(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+m.config.InferencePath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	m.setHeaders(req)

	m.logger.Debug("Sending inference request",
		zap.String("url", req.URL.String()),
		zap.Stringer("precision", opts.Precision),
	)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed Response
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse verbose JSON response: %w", err)
	}

	language := parsed.Language
	if language == "" {
		language = parsed.DetectedLanguage
	}
	result := &inference.Result{
		Language: inference.NormalizeLanguage(language),
		Text:     strings.TrimSpace(parsed.Text),
	}
	for _, seg := range parsed.Segments {
		result.Segments = append(result.Segments, inference.Segment{
			Start: seconds(seg.Start),
			End:   seconds(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return result, nil
}

// LoadModel asks the server to switch to the weights at modelPath.
func (m *Model) LoadModel(ctx context.Context, modelPath string) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model", modelPath); err != nil {
		return fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+m.config.LoadPath, body)
	if err != nil {
		return fmt.Errorf("failed to create load model request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	m.setHeaders(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("load model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("load model failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// HealthCheck reports whether the server answers at its base URL.
func (m *Model) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.config.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	m.setHeaders(req)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("server connectivity test failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server returned error status: %d", resp.StatusCode)
	}
	return nil
}

func (m *Model) setHeaders(req *http.Request) {
	for key, value := range m.config.CustomHeaders {
		req.Header.Set(key, value)
	}
}

func (m *Model) createMultipartForm(path string, opts inference.Options) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy file content: %w", err)
	}

	language := "auto"
	if !opts.DetectLanguage() {
		language = opts.Language
	}
	params := map[string]string{
		"response_format": "verbose_json",
		"temperature":     "0.00",
		"language":        language,
	}
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
