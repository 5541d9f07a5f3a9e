package testutil

import (
	"context"
	"io"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/mock"

	"object-whisper/internal/api/v1/dto"
)

// MockServices contains all mock services for handler tests
type MockServices struct {
	TranscriptionService *MockTranscriptionService
	StorageService       *MockStorageService
}

// NewMockServices creates a new instance of mock services
func NewMockServices(t *testing.T) *MockServices {
	return &MockServices{
		TranscriptionService: NewMockTranscriptionService(t),
		StorageService:       NewMockStorageService(t),
	}
}

// MockTranscriptionService is a mock implementation of services.TranscriptionService
type MockTranscriptionService struct {
	mock.Mock
}

func NewMockTranscriptionService(t *testing.T) *MockTranscriptionService {
	m := &MockTranscriptionService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTranscriptionService) Transcribe(ctx context.Context, objectKey string) (*dto.TranscriptionResponse, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TranscriptionResponse), args.Error(1)
}

// MockStorageService is a mock implementation of services.StorageService.
// Uploaded bodies are read fully and kept in Received.
type MockStorageService struct {
	mock.Mock
	Received map[string][]byte
}

func NewMockStorageService(t *testing.T) *MockStorageService {
	m := &MockStorageService{Received: map[string][]byte{}}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockStorageService) UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*dto.UploadResponse, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	m.Received[header.Filename] = data

	args := m.Called(ctx, header.Filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UploadResponse), args.Error(1)
}

func (m *MockStorageService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
