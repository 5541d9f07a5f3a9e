package whispercpp

import (
	"context"

	"go.uber.org/zap"

	"object-whisper/internal/app/audio"
	"object-whisper/internal/app/inference"
	"object-whisper/internal/config"
)

func init() {
	inference.Register(config.BackendWhisperCpp, load)
}

func load(_ context.Context, cfg config.ModelSettings, logger *zap.Logger) (inference.Model, error) {
	weights, err := inference.ResolveModel(cfg.Name, cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	var opts []Option
	if cfg.ConvertAudio {
		converter, err := audio.NewConverter(cfg.FFmpeg, cfg.FFprobe, logger)
		if err != nil {
			logger.Warn("Audio conversion disabled", zap.Error(err))
		} else {
			opts = append(opts, WithConverter(converter))
		}
	}
	return New(cfg.CppBinary, weights, cfg.Language, logger, opts...)
}
