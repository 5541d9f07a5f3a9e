package services

import (
	"context"
	"time"

	"object-whisper/internal/api/v1/dto"
	"object-whisper/internal/app/transcriber"
)

// Transcriber is the part of *transcriber.Workflow the service needs.
type Transcriber interface {
	Transcribe(ctx context.Context, objectKey string) (transcriber.Result, error)
}

type transcriptionService struct {
	transcriber Transcriber
	modelName   string
}

// NewTranscriptionService wraps t. modelName is echoed in responses.
func NewTranscriptionService(t Transcriber, modelName string) TranscriptionService {
	return &transcriptionService{transcriber: t, modelName: modelName}
}

func (s *transcriptionService) Transcribe(ctx context.Context, objectKey string) (*dto.TranscriptionResponse, error) {
	start := time.Now()
	result, err := s.transcriber.Transcribe(ctx, objectKey)
	if err != nil {
		return nil, err
	}

	resp := &dto.TranscriptionResponse{
		ObjectKey:  objectKey,
		Language:   result.Language,
		Text:       result.Text,
		Model:      s.modelName,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	return resp, nil
}
