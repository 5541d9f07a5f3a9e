package whispercpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"object-whisper/internal/app/audio"
	apperrors "object-whisper/internal/app/errors"
	"object-whisper/internal/app/inference"
)

// Model runs the whisper.cpp CLI against local ggml weights.
type Model struct {
	binaryPath string
	weights    inference.ResolvedModel
	language   string
	logger     *zap.Logger
	converter  *audio.Converter
}

// Option configures a Model.
type Option func(*Model)

// WithConverter converts input that is not a 16kHz WAV before each run.
func WithConverter(c *audio.Converter) Option {
	return func(m *Model) {
		m.converter = c
	}
}

// New checks that the binary and the weights file exist and returns a model bound to them.
func New(binaryPath string, weights inference.ResolvedModel, language string, logger *zap.Logger, opts ...Option) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolvedBinary, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, apperrors.Mark(fmt.Errorf("whisper.cpp binary %q: %w", binaryPath, err), apperrors.ErrModelLoad)
	}
	if !weights.Exists {
		msg := fmt.Sprintf("weights not found at %s", weights.Path)
		if weights.URL != "" {
			msg += fmt.Sprintf(" (download from %s)", weights.URL)
		}
		return nil, apperrors.Mark(apperrors.New(msg), apperrors.ErrModelLoad)
	}

	m := &Model{
		binaryPath: resolvedBinary,
		weights:    weights,
		language:   language,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Name returns the catalog name of the loaded weights.
func (m *Model) Name() string {
	return m.weights.Name
}

// Transcribe runs one whisper-cli process on path and parses its JSON output.
func (m *Model) Transcribe(ctx context.Context, path string, opts inference.Options) (*inference.Result, error) {
	if opts.Language == "" {
		opts.Language = m.language
	}

	outDir, err := os.MkdirTemp("", "o2t-whispercpp-*")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	var audioDuration time.Duration
	if m.converter != nil {
		prepared, info, err := m.converter.Prepare(ctx, path, outDir)
		if err != nil {
			return nil, fmt.Errorf("prepare audio: %w", err)
		}
		path = prepared
		audioDuration = info.Duration
	}

	outputBase := filepath.Join(outDir, "transcript")
	args := m.buildArgs(path, outputBase, opts)

	command := exec.CommandContext(ctx, m.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	m.logger.Debug("Running transcription command",
		zap.String("binary", m.binaryPath),
		zap.Strings("args", args),
		zap.Stringer("precision", opts.Precision),
	)

	start := time.Now()
	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("command execution error: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(outputBase + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}

	result, err := parseOutput(data)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Transcription command finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Duration("audio_duration", audioDuration),
		zap.String("language", result.Language),
		zap.Int("segments", len(result.Segments)),
	)
	return result, nil
}

// Close is a no-op; the weights are loaded per process run.
func (m *Model) Close() error {
	return nil
}

func (m *Model) buildArgs(inputPath, outputBase string, opts inference.Options) []string {
	language := "auto"
	if !opts.DetectLanguage() {
		language = opts.Language
	}

	args := []string{
		"-m", m.weights.Path,
		"-f", inputPath,
		"-l", language,
		"-oj",
		"-of", outputBase,
		"-np",
	}
	// The fp16 GPU path is the default; full precision runs on the CPU.
	if opts.Precision == inference.PrecisionFull {
		args = append(args, "--no-gpu")
	}
	return args
}

type cliOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func parseOutput(data []byte) (*inference.Result, error) {
	var out cliOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper.cpp JSON output: %w", err)
	}

	result := &inference.Result{Language: inference.NormalizeLanguage(out.Result.Language)}
	var text strings.Builder
	for _, seg := range out.Transcription {
		result.Segments = append(result.Segments, inference.Segment{
			Start: time.Duration(seg.Offsets.From) * time.Millisecond,
			End:   time.Duration(seg.Offsets.To) * time.Millisecond,
			Text:  strings.TrimSpace(seg.Text),
		})
		text.WriteString(seg.Text)
	}
	result.Text = strings.TrimSpace(text.String())
	return result, nil
}
