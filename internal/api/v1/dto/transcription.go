package dto

import (
	"strings"

	"object-whisper/internal/api/errors"
)

var errBlankKey = errors.NewValidationError("Validation failed", map[string]string{"object_key": "is required"})

// TranscribeRequest asks for the transcription of one stored object.
type TranscribeRequest struct {
	ObjectKey string `json:"object_key" binding:"required,max=1024"`
}

// Validate rejects keys that are blank after trimming.
func (r *TranscribeRequest) Validate() error {
	if strings.TrimSpace(r.ObjectKey) == "" {
		return errBlankKey
	}
	return nil
}

// TranscriptionResponse is returned for every completed transcription call,
// including a retrieval failure, which carries Language "error".
type TranscriptionResponse struct {
	ObjectKey  string `json:"object_key"`
	Language   string `json:"language"`
	Text       string `json:"text"`
	Error      string `json:"error,omitempty"`
	Model      string `json:"model,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}
