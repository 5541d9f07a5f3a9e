package inference

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	apperrors "object-whisper/internal/app/errors"
	"object-whisper/internal/config"
)

// Loader creates a model for one backend from the model settings.
type Loader func(ctx context.Context, cfg config.ModelSettings, logger *zap.Logger) (Model, error)

var (
	registryMutex sync.RWMutex
	loaders       = make(map[string]Loader)
)

// Register makes a backend available under name. Backends call it from init.
func Register(name string, loader Loader) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if loader == nil {
		panic("inference: Register loader is nil")
	}
	if _, dup := loaders[name]; dup {
		panic("inference: Register called twice for backend " + name)
	}
	loaders[name] = loader
}

// Backends returns the registered backend names.
func Backends() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	names := make([]string, 0, len(loaders))
	for name := range loaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load creates the model configured by cfg.
func Load(ctx context.Context, cfg config.ModelSettings, logger *zap.Logger) (Model, error) {
	registryMutex.RLock()
	loader, ok := loaders[cfg.Backend]
	registryMutex.RUnlock()
	if !ok {
		return nil, apperrors.Mark(
			fmt.Errorf("%q (registered: %s)", cfg.Backend, strings.Join(Backends(), ", ")),
			apperrors.ErrBackendNotFound,
		)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("backend", cfg.Backend), zap.String("model", cfg.Name))

	model, err := loader(ctx, cfg, logger)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnknownModel) || apperrors.Is(err, apperrors.ErrModelLoad) {
			return nil, err
		}
		return nil, apperrors.Mark(err, apperrors.ErrModelLoad)
	}

	logger.Info("Model loaded", zap.String("resolved", model.Name()))
	return model, nil
}
