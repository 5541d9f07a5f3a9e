package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "object-whisper/internal/app/errors"
)

// Settings is the complete runtime configuration of o2t.
type Settings struct {
	Storage     StorageSettings     `yaml:"storage"`
	Model       ModelSettings       `yaml:"model"`
	Accelerator AcceleratorSettings `yaml:"accelerator"`
	Log         LogSettings         `yaml:"log"`
	Server      ServerSettings      `yaml:"server"`
	TempDir     string              `yaml:"temp_dir"`
}

// StorageSettings holds the object store connection parameters.
type StorageSettings struct {
	Endpoint  string     `yaml:"endpoint" validate:"required,hostname_port"`
	AccessKey string     `yaml:"access_key" validate:"required"`
	SecretKey string     `yaml:"secret_key" validate:"required"`
	Bucket    string     `yaml:"bucket" validate:"required,min=3,max=63"`
	UseSSL    StrictBool `yaml:"use_ssl"`
	Region    string     `yaml:"region"`
}

// ModelSettings selects the inference backend and the model it loads.
type ModelSettings struct {
	Name          string        `yaml:"name" validate:"required"`
	Backend       string        `yaml:"backend" validate:"required,oneof=whispercpp whisperserver openai"`
	Language      string        `yaml:"language"`
	CppBinary     string        `yaml:"cpp_binary" validate:"required_if=Backend whispercpp"`
	ModelDir      string        `yaml:"model_dir"`
	ConvertAudio  StrictBool    `yaml:"convert_audio"`
	FFmpeg        string        `yaml:"ffmpeg"`
	FFprobe       string        `yaml:"ffprobe"`
	ServerURL     string        `yaml:"server_url" validate:"required_if=Backend whisperserver,omitempty,url"`
	ServerTimeout time.Duration `yaml:"server_timeout"`
	OpenAIKey     string        `yaml:"openai_api_key" validate:"required_if=Backend openai"`
	OpenAIBaseURL string        `yaml:"openai_base_url" validate:"omitempty,url"`
}

// AcceleratorSettings controls the accelerator probe.
type AcceleratorSettings struct {
	Mode           string `yaml:"mode" validate:"oneof=auto none cpu gpu"`
	ReleaseCommand string `yaml:"release_command"`
}

// LogSettings configures logging and tracing output.
type LogSettings struct {
	Level       string     `yaml:"level" validate:"oneof=debug info warn error"`
	JSON        StrictBool `yaml:"json"`
	TraceStdout StrictBool `yaml:"trace_stdout"`
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port" validate:"required,numeric"`
	Environment string `yaml:"environment" validate:"omitempty,oneof=development production"`
}

// StrictBool is a boolean that only accepts true/false/1/0 when decoded.
type StrictBool bool

// UnmarshalYAML rejects YAML 1.1 style booleans such as "yes" or "on".
func (b *StrictBool) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseBool("yaml value", node.Value)
	if err != nil {
		return err
	}
	*b = StrictBool(v)
	return nil
}

// Defaults returns settings with every optional field populated.
func Defaults() *Settings {
	return &Settings{
		Model: ModelSettings{
			Name:          DefaultModel,
			Backend:       DefaultBackend,
			Language:      DefaultLanguage,
			CppBinary:     DefaultCppBinary,
			ModelDir:      DefaultModelDir,
			ConvertAudio:  true,
			FFmpeg:        DefaultFFmpeg,
			FFprobe:       DefaultFFprobe,
			ServerTimeout: DefaultWhisperServerTimeout,
		},
		Accelerator: AcceleratorSettings{Mode: DefaultAccelMode},
		Log:         LogSettings{Level: DefaultLogLevel},
		Server: ServerSettings{
			Host:        DefaultServerHost,
			Port:        DefaultHTTPPort,
			Environment: "production",
		},
		TempDir: os.TempDir(),
	}
}

// Load builds settings from defaults and environment variables and validates them.
func Load() (*Settings, error) {
	s := Defaults()
	if err := applyEnv(s); err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads a YAML settings file, then lets environment variables override it.
func LoadFile(path string) (*Settings, error) {
	path = os.ExpandEnv(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to read config file %s", path)
	}

	s := Defaults()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, apperrors.Mark(fmt.Errorf("failed to parse YAML %s: %w", path, err), apperrors.ErrInvalidConfig)
	}
	if err := applyEnv(s); err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func applyEnv(s *Settings) error {
	setString(&s.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&s.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&s.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&s.Storage.Bucket, "MINIO_BUCKET")
	setString(&s.Storage.Region, "MINIO_REGION")

	setString(&s.Model.Name, "WHISPER_MODEL")
	setString(&s.Model.Backend, "WHISPER_BACKEND")
	setString(&s.Model.Language, "WHISPER_LANGUAGE")
	setString(&s.Model.CppBinary, "WHISPER_CPP_BINARY")
	setString(&s.Model.ModelDir, "WHISPER_MODEL_DIR")
	setString(&s.Model.FFmpeg, "WHISPER_FFMPEG")
	setString(&s.Model.FFprobe, "WHISPER_FFPROBE")
	setString(&s.Model.ServerURL, "WHISPER_SERVER_URL")
	setString(&s.Model.OpenAIKey, "OPENAI_API_KEY")
	setString(&s.Model.OpenAIBaseURL, "OPENAI_BASE_URL")

	setString(&s.Accelerator.Mode, "ACCELERATOR")
	setString(&s.Accelerator.ReleaseCommand, "ACCELERATOR_RELEASE_CMD")

	setString(&s.Log.Level, "LOG_LEVEL")
	setString(&s.Server.Host, "SERVER_HOST")
	setString(&s.Server.Port, "SERVER_PORT")
	setString(&s.Server.Environment, "ENVIRONMENT")
	setString(&s.TempDir, "WHISPER_TEMP_DIR")

	if v, ok := lookupEnv("WHISPER_SERVER_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return apperrors.InvalidField("WHISPER_SERVER_TIMEOUT", err.Error())
		}
		s.Model.ServerTimeout = d
	}

	bools := []struct {
		name string
		dst  *StrictBool
	}{
		{"MINIO_USE_SSL", &s.Storage.UseSSL},
		{"WHISPER_CONVERT_AUDIO", &s.Model.ConvertAudio},
		{"LOG_JSON", &s.Log.JSON},
		{"TRACE_STDOUT", &s.Log.TraceStdout},
	}
	for _, b := range bools {
		v, ok := lookupEnv(b.name)
		if !ok {
			continue
		}
		parsed, err := ParseBool(b.name, v)
		if err != nil {
			return err
		}
		*b.dst = StrictBool(parsed)
	}

	return nil
}

func setString(dst *string, name string) {
	if v, ok := lookupEnv(name); ok {
		*dst = v
	}
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
