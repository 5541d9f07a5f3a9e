package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"object-whisper/internal/api/v1/services"
)

// ObjectHandler stores audio objects for later transcription.
type ObjectHandler struct {
	storage services.StorageService
}

func NewObjectHandler(storage services.StorageService) *ObjectHandler {
	return &ObjectHandler{storage: storage}
}

// Upload handles POST /api/v1/objects
func (h *ObjectHandler) Upload(c *gin.Context) {
	uploaded, ok := storeUpload(c, h.storage)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, uploaded)
}
