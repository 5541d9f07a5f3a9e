package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"object-whisper/internal/api/v1/dto"
	"object-whisper/internal/api/v1/routes"
	apperrors "object-whisper/internal/app/errors"
	"object-whisper/internal/app/testutil"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *testutil.MockServices) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	mockServices := testutil.NewMockServices(t)
	routes.RegisterRoutes(router.Group("/api/v1"), &routes.ServiceContainer{
		TranscriptionService: mockServices.TranscriptionService,
		StorageService:       mockServices.StorageService,
	})
	return router, mockServices
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestTranscriptionHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*testutil.MockServices)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name: "successful transcription",
			body: `{"object_key":"sample-1"}`,
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("Transcribe", mock.Anything, "sample-1").
					Return(&dto.TranscriptionResponse{
						ObjectKey: "sample-1",
						Language:  "en",
						Text:      "hello world",
						Model:     "large",
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "en", body["language"])
				assert.Equal(t, "hello world", body["text"])
				assert.Equal(t, "large", body["model"])
				assert.NotContains(t, body, "error")
			},
		},
		{
			name: "retrieval failure is a normal result",
			body: `{"object_key":"missing"}`,
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("Transcribe", mock.Anything, "missing").
					Return(&dto.TranscriptionResponse{
						ObjectKey: "missing",
						Language:  "error",
						Text:      "Could not retrieve file",
						Error:     "object not found",
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "error", body["language"])
				assert.Equal(t, "Could not retrieve file", body["text"])
				assert.Equal(t, "object not found", body["error"])
			},
		},
		{
			name:           "validation error - missing object key",
			body:           `{}`,
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "validation", body["kind"])
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "is required", details["object_key"])
			},
		},
		{
			name:           "validation error - blank object key",
			body:           `{"object_key":"   "}`,
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "is required", details["object_key"])
			},
		},
		{
			name:           "malformed json",
			body:           `{"object_key":`,
			setupMocks:     func(ms *testutil.MockServices) {},
			expectedStatus: http.StatusUnprocessableEntity,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "invalid JSON format", details["request"])
			},
		},
		{
			name: "inference failure",
			body: `{"object_key":"sample-1"}`,
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("Transcribe", mock.Anything, "sample-1").
					Return(nil, apperrors.Mark(errors.New("whisper-cli: exit status 1"), apperrors.ErrInference))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "inference", body["kind"])
				assert.Equal(t, "inference_failed", body["code"])
			},
		},
		{
			name: "unexpected failure hides the cause",
			body: `{"object_key":"sample-1"}`,
			setupMocks: func(ms *testutil.MockServices) {
				ms.TranscriptionService.On("Transcribe", mock.Anything, "sample-1").
					Return(nil, errors.New("secret detail"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "internal", body["kind"])
				assert.NotContains(t, body["message"], "secret")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockServices := setupTestRouter(t)
			tt.setupMocks(mockServices)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.validateBody(t, decodeBody(t, w))
		})
	}
}

func TestTranscriptionHandler_Upload(t *testing.T) {
	router, mockServices := setupTestRouter(t)

	uploaded := &dto.UploadResponse{
		ObjectKey:  "uploads/abcd1234/clip.wav",
		Bucket:     testutil.SampleBucket,
		Name:       "clip.wav",
		Size:       4,
		UploadedAt: time.Now().UTC(),
	}
	mockServices.StorageService.On("UploadFile", mock.Anything, "clip.wav").Return(uploaded, nil)
	mockServices.TranscriptionService.On("Transcribe", mock.Anything, uploaded.ObjectKey).
		Return(&dto.TranscriptionResponse{ObjectKey: uploaded.ObjectKey, Language: "en", Text: "hi"}, nil)

	body, contentType := multipartBody(t, "file", "clip.wav", []byte("RIFF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.UploadAndTranscribeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uploaded.ObjectKey, resp.Upload.ObjectKey)
	assert.Equal(t, "hi", resp.Transcription.Text)
	assert.Equal(t, []byte("RIFF"), mockServices.StorageService.Received["clip.wav"])
}

func TestTranscriptionHandler_UploadWithoutFile(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, contentType := multipartBody(t, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	details := decodeBody(t, w)["details"].(map[string]interface{})
	assert.Equal(t, "is required", details["file"])
}

func TestTranscriptionHandler_UploadStoreFailure(t *testing.T) {
	router, mockServices := setupTestRouter(t)
	mockServices.StorageService.On("UploadFile", mock.Anything, "clip.wav").
		Return(nil, errors.New("failed to upload file: connection refused"))

	body, contentType := multipartBody(t, "file", "clip.wav", []byte("RIFF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	mockServices.TranscriptionService.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
}

func TestTranscriptionHandler_UploadDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	routes.RegisterRoutes(router.Group("/api/v1"), &routes.ServiceContainer{
		TranscriptionService: testutil.NewMockTranscriptionService(t),
	})

	body, contentType := multipartBody(t, "file", "clip.wav", []byte("RIFF"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	// The objects route is not registered without storage.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/objects", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
