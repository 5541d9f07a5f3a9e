package whisperserver

import (
	"context"

	"go.uber.org/zap"

	"object-whisper/internal/app/inference"
	"object-whisper/internal/config"
)

func init() {
	inference.Register(config.BackendWhisperServer, load)
}

// load resolves the model name to a weights path under the server's model
// directory. Whether that file exists is the server's concern.
func load(ctx context.Context, cfg config.ModelSettings, logger *zap.Logger) (inference.Model, error) {
	weights, err := inference.ResolveModel(cfg.Name, cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	return New(ctx, Config{
		BaseURL:   cfg.ServerURL,
		Timeout:   cfg.ServerTimeout,
		Language:  cfg.Language,
		ModelName: weights.Name,
		ModelPath: weights.Path,
	}, logger)
}
