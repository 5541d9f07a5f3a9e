package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions selects the zap configuration.
type LoggerOptions struct {
	Level       string
	JSON        bool
	Development bool
}

// NewLogger creates a new zap logger with appropriate configuration
func NewLogger(opts LoggerOptions) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var config zap.Config
	if opts.Development || !opts.JSON {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Encoding = "console"
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
	}

	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = level > zapcore.DebugLevel

	return config.Build()
}

// MustNewLogger creates a new logger and panics if it fails
func MustNewLogger(opts LoggerOptions) *zap.Logger {
	logger, err := NewLogger(opts)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}
