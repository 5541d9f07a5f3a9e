package config

import "time"

// Default configuration constants
const (
	// Model defaults
	DefaultModel      = "large"
	DefaultBackend    = "whispercpp"
	DefaultCppBinary  = "whisper-cli"
	DefaultModelDir   = "./models"
	DefaultFFmpeg     = "ffmpeg"
	DefaultFFprobe    = "ffprobe"
	DefaultAccelMode  = "auto"
	DefaultLanguage   = "auto"
	DefaultLogLevel   = "info"
	DefaultServerHost = "0.0.0.0"

	// Timeout defaults
	DefaultWhisperServerTimeout = 300 * time.Second
	DefaultShutdownTimeout      = 10 * time.Second

	// Network defaults
	DefaultHTTPPort = "8080"
)

// DefaultEnvFiles are searched in order by LoadEnv when no explicit path is given.
var DefaultEnvFiles = []string{
	".env",
	".env.local",
	"/var/whisper/.env.local",
}

// Backend names
const (
	BackendWhisperCpp    = "whispercpp"
	BackendWhisperServer = "whisperserver"
	BackendOpenAI        = "openai"
)
