package routes

import (
	"github.com/gin-gonic/gin"

	"object-whisper/internal/api/v1/handlers"
	"object-whisper/internal/api/v1/services"
)

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	TranscriptionService services.TranscriptionService
	StorageService       services.StorageService
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	transcriptionHandler := handlers.NewTranscriptionHandler(container.TranscriptionService, container.StorageService)
	transcriptions := router.Group("/transcriptions")
	{
		transcriptions.POST("", transcriptionHandler.Create)
		transcriptions.POST("/upload", transcriptionHandler.Upload)
	}

	if container.StorageService != nil {
		objectHandler := handlers.NewObjectHandler(container.StorageService)
		router.POST("/objects", objectHandler.Upload)
	}
}
