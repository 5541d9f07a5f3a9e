// Package common holds the flags and settings loading shared by subcommands.
package common

import (
	"fmt"
	"os"

	"object-whisper/internal/config"
)

var (
	EnvFile    string
	ConfigFile string
	Verbose    bool
)

// LoadSettings reads the env file and settings selected by the global flags.
func LoadSettings() (*config.Settings, error) {
	settings, loaded, err := config.InitializeConfig(EnvFile, ConfigFile)
	if err != nil {
		return nil, err
	}
	if Verbose {
		settings.Log.Level = "debug"
		if loaded != "" {
			fmt.Fprintf(os.Stderr, "loaded environment from %s\n", loaded)
		}
	}
	return settings, nil
}
