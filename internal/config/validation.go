package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	apperrors "object-whisper/internal/app/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ParseBool normalises a boolean setting. Only true/false/1/0 are accepted
// (case-insensitive); any other representation is a configuration error.
func ParseBool(name, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, apperrors.InvalidField(name, fmt.Sprintf("%q is not a boolean (use true, false, 1 or 0)", value))
	}
}

// Validate checks struct tags and cross-field rules of the settings.
func Validate(s *Settings) error {
	if s == nil {
		return apperrors.ErrMissingConfig
	}

	if err := getValidator().Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return apperrors.Mark(fmt.Errorf("%s", formatValidationErrors(verrs)), apperrors.ErrInvalidConfig)
		}
		return apperrors.Mark(err, apperrors.ErrInvalidConfig)
	}

	if s.Model.Backend == BackendWhisperServer {
		if err := ValidateURL(s.Model.ServerURL, "whisper server"); err != nil {
			return err
		}
	}

	return nil
}

func formatValidationErrors(verrs validator.ValidationErrors) string {
	msgs := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		field := strings.TrimPrefix(fe.Namespace(), "Settings.")
		switch fe.Tag() {
		case "required", "required_if":
			return fmt.Sprintf("%s is required", field)
		case "oneof":
			return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
		case "hostname_port":
			return fmt.Sprintf("%s must be host:port", field)
		default:
			return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
		}
	})
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// ValidateURL validates URL format
func ValidateURL(url string, name string) error {
	if url == "" {
		return apperrors.RequiredField(name + " URL")
	}

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return apperrors.InvalidField(name+" URL", "must start with http:// or https://")
	}

	return nil
}
