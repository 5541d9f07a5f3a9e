package accelerator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"object-whisper/internal/config"
)

// Accelerator is a compute device whose presence selects the inference
// precision and whose memory cache is released after each call.
type Accelerator interface {
	// Available probes the device. It never fails; a probe error means unavailable.
	Available(ctx context.Context) bool
	// ReleaseCache frees cached device memory held from the last inference.
	ReleaseCache(ctx context.Context) error
}

// Modes accepted by New.
const (
	ModeAuto = "auto"
	ModeNone = "none"
	ModeCPU  = "cpu"
	ModeGPU  = "gpu"
)

// New returns the accelerator for the configured mode.
func New(cfg config.AcceleratorSettings, logger *zap.Logger) (Accelerator, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", ModeAuto:
		return NewNvidiaSMI(cfg.ReleaseCommand, logger), nil
	case ModeGPU:
		a := NewNvidiaSMI(cfg.ReleaseCommand, logger)
		a.assumeAvailable = true
		return a, nil
	case ModeNone, ModeCPU:
		return None, nil
	default:
		return nil, fmt.Errorf("unknown accelerator mode %q", cfg.Mode)
	}
}

// Static is an accelerator with a fixed availability and nothing to release.
type Static bool

// None is never available.
const None = Static(false)

func (s Static) Available(context.Context) bool { return bool(s) }

func (s Static) ReleaseCache(context.Context) error { return nil }

// NvidiaSMI probes NVIDIA devices with the nvidia-smi tool.
type NvidiaSMI struct {
	Binary         string
	ReleaseCommand []string

	assumeAvailable bool
	logger          *zap.Logger
}

// NewNvidiaSMI creates a probe. releaseCommand, when not empty, is split on
// whitespace and run by ReleaseCache.
func NewNvidiaSMI(releaseCommand string, logger *zap.Logger) *NvidiaSMI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NvidiaSMI{
		Binary:         "nvidia-smi",
		ReleaseCommand: strings.Fields(releaseCommand),
		logger:         logger.Named("accelerator"),
	}
}

// Available reports whether nvidia-smi lists at least one device.
func (n *NvidiaSMI) Available(ctx context.Context) bool {
	if n.assumeAvailable {
		return true
	}
	out, err := n.query(ctx, "--query-gpu=name", "--format=csv,noheader")
	if err != nil {
		n.logger.Debug("No accelerator found", zap.Error(err))
		return false
	}
	devices := strings.Fields(strings.TrimSpace(out))
	return len(devices) > 0
}

// ReleaseCache runs the configured release command, then logs device memory in use.
func (n *NvidiaSMI) ReleaseCache(ctx context.Context) error {
	if len(n.ReleaseCommand) > 0 {
		cmd := exec.CommandContext(ctx, n.ReleaseCommand[0], n.ReleaseCommand[1:]...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("release command %q: %w, stderr: %s", strings.Join(n.ReleaseCommand, " "), err, strings.TrimSpace(stderr.String()))
		}
	}

	if out, err := n.query(ctx, "--query-gpu=memory.used", "--format=csv,noheader,nounits"); err == nil {
		n.logger.Debug("Accelerator cache released", zap.Strings("memory_used_mib", strings.Fields(out)))
	}
	return nil
}

func (n *NvidiaSMI) query(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, n.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w, stderr: %s", n.Binary, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
