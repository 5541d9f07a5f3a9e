package transcribe

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"object-whisper/cmd/o2t/cmd/common"
	"object-whisper/internal/app"
	"object-whisper/internal/app/progress"
	"object-whisper/internal/app/transcriber"
)

var (
	showProgress bool
	jsonOutput   bool
)

func init() {
	Cmd.Flags().BoolVarP(&showProgress, "progress", "p", false, "show progress bars even when stderr is not a terminal")
	Cmd.Flags().BoolVar(&jsonOutput, "json", false, "print one JSON object per key instead of plain text")
}

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe <object-key>...",
	Short: "Transcribe one or more objects from the bucket",
	Long: `Transcribe one or more objects from the bucket

- Each key is fetched, staged to a temp file and transcribed in turn
- A key that cannot be retrieved prints language "error" and continues
- The exit status is non-zero when any key failed`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := common.LoadSettings()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		enabled := !jsonOutput && progress.ShouldShowProgress(showProgress)
		bars := progress.NewManager(progress.Config{Enabled: enabled, Writer: os.Stderr})
		var listener transcriber.PhaseListener
		if enabled {
			listener = bars
		}

		wf, cleanup, err := app.InitializeWorkflow(ctx, settings, listener)
		if err != nil {
			return err
		}
		defer cleanup()
		logger := wf.Logger()

		failed := 0
		out := cmd.OutOrStdout()
		for _, key := range args {
			result, err := wf.Transcribe(ctx, key)
			if err != nil {
				failed++
				logger.Error("Transcription failed", zap.String("key", key), zap.Error(err))
				continue
			}
			if result.RetrievalFailed() {
				failed++
			}
			logger.Info("Transcription",
				zap.String("key", key),
				zap.String("language", result.Language),
				zap.String("text", result.Text),
			)

			if jsonOutput {
				line, err := json.Marshal(struct {
					Key string `json:"object_key"`
					transcriber.Result
				}{key, result})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(line))
			} else {
				fmt.Fprintf(out, "%s\t[%s]\t%s\n", key, result.Language, result.Text)
			}
		}
		bars.Wait()

		if failed > 0 {
			return fmt.Errorf("%d of %d objects failed", failed, len(args))
		}
		return nil
	},
}
