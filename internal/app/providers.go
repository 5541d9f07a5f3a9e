package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"object-whisper/internal/api/server"
	"object-whisper/internal/api/v1/services"
	"object-whisper/internal/app/observability"
	"object-whisper/internal/app/transcriber"
	"object-whisper/internal/config"
)

// UploadPrefix is the key prefix for objects uploaded through the API.
const UploadPrefix = "uploads"

func provideObservability(settings *config.Settings) (*observability.Observability, func(), error) {
	obs, err := observability.New(observability.Options{
		Logger: observability.LoggerOptions{
			Level:       settings.Log.Level,
			JSON:        bool(settings.Log.JSON),
			Development: settings.Server.Environment == "development",
		},
		TraceStdout: bool(settings.Log.TraceStdout),
		ServiceName: "o2t",
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}
	return obs, cleanup, nil
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) (*transcriber.Metrics, error) {
	return transcriber.NewMetrics(reg)
}

func provideWorkflow(ctx context.Context, settings *config.Settings, obs *observability.Observability, metrics *transcriber.Metrics, listener transcriber.PhaseListener) (*transcriber.Workflow, func(), error) {
	opts := []transcriber.Option{transcriber.WithMetrics(metrics)}
	if listener != nil {
		opts = append(opts, transcriber.WithPhaseListener(listener))
	}
	wf, err := transcriber.New(ctx, settings, obs, opts...)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := wf.Close(); err != nil {
			obs.Logger.Warn("Failed to close model", zap.Error(err))
		}
	}
	return wf, cleanup, nil
}

func provideNoListener() transcriber.PhaseListener {
	return nil
}

func provideServer(settings *config.Settings, wf *transcriber.Workflow, obs *observability.Observability, reg *prometheus.Registry) (*server.Server, error) {
	deps := server.Deps{
		Transcriber: wf,
		ModelName:   wf.Model().Name(),
		Registry:    reg,
		Logger:      obs.Logger,
	}
	if store, ok := wf.Store().(services.ObjectStore); ok {
		deps.Store = store
	}
	return server.NewServer(server.Config{
		Host:         settings.Server.Host,
		Port:         settings.Server.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: settings.Model.ServerTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
		Environment:  settings.Server.Environment,
		UploadPrefix: UploadPrefix,
	}, deps)
}
