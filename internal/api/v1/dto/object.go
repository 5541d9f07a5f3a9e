package dto

import "time"

// UploadResponse describes an object stored through the upload endpoint.
type UploadResponse struct {
	ObjectKey  string    `json:"object_key"`
	Bucket     string    `json:"bucket"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	URL        string    `json:"url,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadAndTranscribeResponse is the result of uploading a file and transcribing it in one call.
type UploadAndTranscribeResponse struct {
	Upload        UploadResponse        `json:"upload"`
	Transcription TranscriptionResponse `json:"transcription"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
