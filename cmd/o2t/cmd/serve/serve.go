package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"object-whisper/cmd/o2t/cmd/common"
	"object-whisper/internal/app"
	"object-whisper/internal/config"
)

var (
	host string
	port string
)

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "listen host (overrides SERVER_HOST)")
	Cmd.Flags().StringVarP(&port, "port", "P", "", "listen port (overrides SERVER_PORT)")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the transcription HTTP API",
	Long: `Serve the transcription HTTP API

- POST /api/v1/transcriptions transcribes an object key
- POST /api/v1/transcriptions/upload stores a file and transcribes it
- GET /health checks the bucket, GET /metrics exposes Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := common.LoadSettings()
		if err != nil {
			return err
		}
		if host != "" {
			settings.Server.Host = host
		}
		if port != "" {
			settings.Server.Port = port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, cleanup, err := app.InitializeServer(ctx, settings)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := srv.Start(); err != nil {
			return err
		}

		var serveErr error
		select {
		case <-ctx.Done():
		case serveErr = <-srv.Errors():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
			serveErr = err
		}
		return serveErr
	},
}
