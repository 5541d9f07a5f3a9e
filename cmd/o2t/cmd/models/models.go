package models

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"object-whisper/cmd/o2t/cmd/common"
	"object-whisper/internal/app/inference"
	"object-whisper/internal/app/progress"
	"object-whisper/internal/downloader"
)

var modelDir string

func init() {
	Cmd.PersistentFlags().StringVarP(&modelDir, "dir", "d", "", "model directory (overrides WHISPER_MODEL_DIR)")
	Cmd.AddCommand(downloadCmd)
}

// Cmd represents the models command
var Cmd = &cobra.Command{
	Use:   "models",
	Short: "List the known whisper models and whether their weights are present",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveDir()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tALIASES\tREMOTE\tPRESENT\tPATH")
		for _, entry := range inference.Catalog() {
			resolved, err := inference.ResolveModel(entry.Name, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
				entry.Name, strings.Join(entry.Aliases, ","), entry.Remote, resolved.Exists, resolved.Path)
		}
		return w.Flush()
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <model>...",
	Short: "Download ggml weights for whisper.cpp",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveDir()
		if err != nil {
			return err
		}

		var bars *os.File
		if progress.ShouldShowProgress(false) {
			bars = os.Stderr
		}
		for _, name := range args {
			resolved, err := inference.ResolveModel(name, dir)
			if err != nil {
				return err
			}
			opts := downloader.Options{}
			if bars != nil {
				opts.Progress = bars
			}
			if err := downloader.DownloadWeights(cmd.Context(), resolved, opts); err != nil {
				return fmt.Errorf("download %s: %w", resolved.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", resolved.Name, resolved.Path)
		}
		return nil
	},
}

func resolveDir() (string, error) {
	if modelDir != "" {
		return modelDir, nil
	}
	settings, err := common.LoadSettings()
	if err != nil {
		return "", err
	}
	return settings.Model.ModelDir, nil
}
