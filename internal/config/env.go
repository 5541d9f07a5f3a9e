package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from an env file.
// With an explicit path the file must exist. Without one, the first of
// DefaultEnvFiles that exists is loaded; finding none is not an error since
// the variables might be set in the process environment. Variables already
// present in the environment are never overwritten.
// It returns the path that was loaded, or "" when none was.
func LoadEnv(path string) (string, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("error loading %s file: %w", path, err)
		}
		return path, nil
	}

	for _, envPath := range DefaultEnvFiles {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return "", fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return envPath, nil
		}
	}

	return "", nil
}

// InitializeConfig loads the env file (if any) and then the settings.
// A non-empty configPath selects a YAML file as the base layer.
func InitializeConfig(envPath, configPath string) (*Settings, string, error) {
	loaded, err := LoadEnv(envPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load environment: %w", err)
	}

	var settings *Settings
	if configPath != "" {
		settings, err = LoadFile(configPath)
	} else {
		settings, err = Load()
	}
	if err != nil {
		return nil, loaded, err
	}

	return settings, loaded, nil
}
