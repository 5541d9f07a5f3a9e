package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"object-whisper/internal/app/inference"
)

// Options configures DownloadWeights.
type Options struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
	Retries  int
}

// DownloadWeights fetches the weights file of model into model.Path.
//
// An existing file is kept when it matches the catalog checksum, or when no
// checksum is known and its size equals the remote Content-Length. The body
// is written to a ".part" file and renamed only after the checksum matched.
func DownloadWeights(ctx context.Context, model inference.ResolvedModel, opts Options) error {
	if model.URL == "" {
		return fmt.Errorf("model %s has no download URL", model.Name)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Minute}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	logger := opts.Logger.With(zap.String("model", model.Name), zap.String("path", model.Path))

	upToDate, err := isUpToDate(ctx, opts.HTTPClient, model)
	if err != nil {
		logger.Warn("Could not compare local weights, downloading again", zap.Error(err))
	}
	if upToDate {
		logger.Info("Local weights are up to date, no need to download")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(model.Path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Retries; attempt++ {
		if attempt > 1 {
			logger.Warn("Retrying download", zap.Int("attempt", attempt), zap.Int("max", opts.Retries))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}
		lastErr = downloadOnce(ctx, opts, model)
		if lastErr == nil {
			logger.Info("Weights downloaded")
			return nil
		}
	}
	return lastErr
}

func isUpToDate(ctx context.Context, client *http.Client, model inference.ResolvedModel) (bool, error) {
	info, err := os.Stat(model.Path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if model.SHA256 != "" {
		return VerifyFileChecksum(model.Path, model.SHA256) == nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, model.URL, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	remoteSize, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return false, fmt.Errorf("remote size unknown: %w", err)
	}
	return info.Size() == remoteSize, nil
}

func downloadOnce(ctx context.Context, opts Options, model inference.ResolvedModel) error {
	tempPath := model.Path + ".part"
	_ = os.Remove(tempPath)

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	success := false
	defer func() {
		_ = out.Close()
		if !success {
			_ = os.Remove(tempPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, model.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	var progress *mpb.Progress
	var bar *mpb.Bar
	if opts.Progress != nil && resp.ContentLength > 0 {
		progress = mpb.New(mpb.WithOutput(opts.Progress), mpb.WithRefreshRate(120*time.Millisecond))
		bar = progress.AddBar(resp.ContentLength,
			mpb.PrependDecorators(
				decor.Name(model.Name, decor.WCSyncSpaceR),
				decor.CountersKibiByte("% .1f / % .1f"),
			),
			mpb.AppendDecorators(
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
				decor.Name(" "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30),
			),
		)
		proxy := bar.ProxyReader(resp.Body)
		defer proxy.Close()
		body = proxy
	}

	hash := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(out, hash), body)
	if progress != nil {
		if copyErr != nil {
			bar.Abort(false)
		} else {
			bar.SetTotal(-1, true)
		}
		progress.Wait()
	}
	if copyErr != nil {
		return fmt.Errorf("download body: %w", copyErr)
	}

	actual := hex.EncodeToString(hash.Sum(nil))
	if expected := strings.ToLower(model.SHA256); expected != "" && actual != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, model.Path); err != nil {
		return fmt.Errorf("move temp file into place: %w", err)
	}
	success = true
	return nil
}

// VerifyFileChecksum compares the SHA-256 of path with expected.
func VerifyFileChecksum(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash file: %w", err)
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != strings.ToLower(strings.TrimSpace(expected)) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}
