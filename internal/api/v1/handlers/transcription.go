package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"object-whisper/internal/api/errors"
	"object-whisper/internal/api/middleware"
	"object-whisper/internal/api/v1/dto"
	"object-whisper/internal/api/v1/services"
)

// maxUploadBytes bounds the multipart body accepted by the upload endpoints.
const maxUploadBytes = 512 << 20

// TranscriptionHandler handles transcription-related API endpoints
type TranscriptionHandler struct {
	service services.TranscriptionService
	storage services.StorageService
}

// NewTranscriptionHandler creates a new transcription handler. storage may
// be nil, which disables Upload.
func NewTranscriptionHandler(service services.TranscriptionService, storage services.StorageService) *TranscriptionHandler {
	return &TranscriptionHandler{
		service: service,
		storage: storage,
	}
}

// Create handles POST /api/v1/transcriptions
//
// A missing or unreadable object is a normal result (200, language "error").
// Inference failures answer 500 with an APIError.
func (h *TranscriptionHandler) Create(c *gin.Context) {
	var req dto.TranscribeRequest
	if err := middleware.ValidateRequest(c, &req); err != nil {
		middleware.HandleError(c, err)
		return
	}

	response, err := h.service.Transcribe(c.Request.Context(), req.ObjectKey)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Upload handles POST /api/v1/transcriptions/upload
//
// The multipart field "file" is stored in the bucket and then transcribed.
func (h *TranscriptionHandler) Upload(c *gin.Context) {
	if h.storage == nil {
		middleware.HandleError(c, errors.NewServiceUnavailableError("Uploads are not enabled"))
		return
	}

	uploaded, ok := storeUpload(c, h.storage)
	if !ok {
		return
	}

	response, err := h.service.Transcribe(c.Request.Context(), uploaded.ObjectKey)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UploadAndTranscribeResponse{
		Upload:        *uploaded,
		Transcription: *response,
	})
}

func storeUpload(c *gin.Context, storage services.StorageService) (*dto.UploadResponse, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		middleware.HandleError(c, errors.NewValidationError("Validation failed", map[string]string{"file": "is required"}))
		return nil, false
	}
	defer file.Close()

	uploaded, err := storage.UploadFile(c.Request.Context(), file, header)
	if err != nil {
		middleware.HandleError(c, errors.NewServiceUnavailableError(err.Error()))
		return nil, false
	}
	return uploaded, true
}
