package services

import (
	"context"
	"mime/multipart"

	"object-whisper/internal/api/v1/dto"
)

// TranscriptionService runs transcriptions for the HTTP handlers.
type TranscriptionService interface {
	Transcribe(ctx context.Context, objectKey string) (*dto.TranscriptionResponse, error)
}

// StorageService stores uploaded audio in the object store.
type StorageService interface {
	UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*dto.UploadResponse, error)
	Ping(ctx context.Context) error
}
