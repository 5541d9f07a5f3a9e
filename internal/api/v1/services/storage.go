package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"object-whisper/internal/api/v1/dto"
	"object-whisper/internal/app/storage"
)

// ObjectStore is what uploads need from a store.
type ObjectStore interface {
	storage.Uploader
	storage.Pinger
	Bucket() string
}

type urlResolver interface {
	ObjectURL(key string) string
}

type storageService struct {
	store  ObjectStore
	prefix string
}

// NewStorageService stores uploads under prefix/<id>/<file name>.
func NewStorageService(store ObjectStore, prefix string) StorageService {
	return &storageService{store: store, prefix: strings.Trim(prefix, "/")}
}

func (s *storageService) UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*dto.UploadResponse, error) {
	name := path.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "audio"
	}
	fileID := uuid.New().String()[:8]
	key := path.Join(s.prefix, fileID, name)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.store.PutObject(ctx, key, file, header.Size, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	resp := &dto.UploadResponse{
		ObjectKey:  key,
		Bucket:     s.store.Bucket(),
		Name:       name,
		Size:       header.Size,
		UploadedAt: time.Now().UTC(),
	}
	if r, ok := s.store.(urlResolver); ok {
		resp.URL = r.ObjectURL(key)
	}
	return resp, nil
}

func (s *storageService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
