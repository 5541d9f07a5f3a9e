// Package audio probes and converts audio files with ffprobe and ffmpeg.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SampleRate is the rate whisper models are trained on.
const SampleRate = 16000

// Converter shells out to ffprobe and ffmpeg.
type Converter struct {
	ffmpeg  string
	ffprobe string
	logger  *zap.Logger
}

// NewConverter resolves both binaries on PATH.
func NewConverter(ffmpeg, ffprobe string, logger *zap.Logger) (*Converter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ffmpegPath, err := exec.LookPath(ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg %q: %w", ffmpeg, err)
	}
	ffprobePath, err := exec.LookPath(ffprobe)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", ffprobe, err)
	}
	return &Converter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, logger: logger}, nil
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate int    `json:"sample_rate,string"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Info is what Probe learns about a file.
type Info struct {
	// Is16kHzWav reports a pcm_s16le stream at SampleRate.
	Is16kHzWav bool
	Duration   time.Duration
}

// Probe inspects path with ffprobe.
func (c *Converter) Probe(ctx context.Context, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, c.ffprobe, "-v", "quiet", "-print_format", "json", "-show_streams", "-show_format", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe error: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return Info{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var info Info
	for _, stream := range probe.Streams {
		if stream.CodecType == "audio" && stream.CodecName == "pcm_s16le" && stream.SampleRate == SampleRate {
			info.Is16kHzWav = true
		}
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64); err == nil && !math.IsNaN(d) {
		info.Duration = time.Duration(d * float64(time.Second))
	}
	return info, nil
}

// ToWav16k converts input to a mono 16kHz WAV file in outDir and returns its path.
func (c *Converter) ToWav16k(ctx context.Context, input, outDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	output := filepath.Join(outDir, base+"_16khz.wav")

	cmd := exec.CommandContext(ctx, c.ffmpeg, "-nostdin", "-y", "-i", input,
		"-vn", "-acodec", "pcm_s16le", "-ar", strconv.Itoa(SampleRate), "-ac", "1", output)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("FFmpeg error: %w, stderr: %s", err, lastLine(stderr.String()))
	}
	c.logger.Debug("Converted to 16kHz WAV", zap.String("output", output), zap.Duration("elapsed", time.Since(start)))
	return output, nil
}

// Prepare returns a path whisper.cpp can read: input itself when it is
// already a 16kHz WAV, otherwise a converted copy in outDir.
func (c *Converter) Prepare(ctx context.Context, input, outDir string) (string, Info, error) {
	info, err := c.Probe(ctx, input)
	if err != nil {
		return "", Info{}, err
	}
	if info.Is16kHzWav {
		return input, info, nil
	}
	converted, err := c.ToWav16k(ctx, input, outDir)
	return converted, info, err
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
