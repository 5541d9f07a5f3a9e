package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"object-whisper/cmd/o2t/cmd/common"
	"object-whisper/cmd/o2t/cmd/models"
	"object-whisper/cmd/o2t/cmd/serve"
	"object-whisper/cmd/o2t/cmd/transcribe"
	"object-whisper/cmd/o2t/cmd/upload"
	"object-whisper/cmd/o2t/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "o2t",
	Short: "Transcribe audio objects stored in MinIO with whisper",
	Long: `Transcribe audio objects stored in MinIO with whisper.
- Fetch the object from the configured bucket
- Run whisper on it, with reduced precision when a GPU is available
- Print the detected language and the transcript`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(transcribe.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(models.Cmd)
	rootCmd.AddCommand(upload.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&common.Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&common.EnvFile, "env-file", "", "env file to load (default: first of .env, .env.local)")
	rootCmd.PersistentFlags().StringVarP(&common.ConfigFile, "config", "c", "", "YAML settings file; environment variables override it")
}
