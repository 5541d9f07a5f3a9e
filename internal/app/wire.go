//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"object-whisper/internal/api/server"
	"object-whisper/internal/app/transcriber"
	"object-whisper/internal/config"
)

var workflowSet = wire.NewSet(provideObservability, provideRegistry, provideMetrics, provideWorkflow)

// InitializeWorkflow builds a workflow for the CLI. listener may be nil.
func InitializeWorkflow(ctx context.Context, settings *config.Settings, listener transcriber.PhaseListener) (*transcriber.Workflow, func(), error) {
	wire.Build(workflowSet)
	return nil, nil, nil
}

// InitializeServer builds the HTTP server around a workflow.
func InitializeServer(ctx context.Context, settings *config.Settings) (*server.Server, func(), error) {
	wire.Build(workflowSet, provideNoListener, provideServer)
	return nil, nil, nil
}
