package upload

import (
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"object-whisper/cmd/o2t/cmd/common"
	"object-whisper/internal/app/storage"
)

var key string

func init() {
	Cmd.Flags().StringVarP(&key, "key", "k", "", "object key (default: the file name)")
}

// Cmd represents the upload command
var Cmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a local audio file to the bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := common.LoadSettings()
		if err != nil {
			return err
		}
		store, err := storage.NewMinioStore(storage.MinioConfigFromSettings(settings.Storage))
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		objectKey := key
		if objectKey == "" {
			objectKey = path.Base(filepath.ToSlash(args[0]))
		}
		contentType := mime.TypeByExtension(filepath.Ext(args[0]))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		if err := store.PutObject(cmd.Context(), objectKey, f, info.Size(), contentType); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", store.Bucket(), objectKey)
		return nil
	},
}
