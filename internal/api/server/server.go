package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"object-whisper/internal/api/middleware"
	"object-whisper/internal/api/v1/dto"
	v1routes "object-whisper/internal/api/v1/routes"
	"object-whisper/internal/api/v1/services"
)

// Config represents API server configuration
type Config struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
	// UploadPrefix is the key prefix for objects uploaded through the API.
	UploadPrefix string
}

// Deps are the collaborators the routes are built from.
type Deps struct {
	Transcriber services.Transcriber
	// Store enables the upload endpoints and the storage health check.
	Store     services.ObjectStore
	ModelName string
	// Registry receives the HTTP collectors and backs /metrics. A fresh
	// registry is created when nil.
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
	storage    services.StorageService
	errCh      chan error
}

// NewServer creates a new API server
func NewServer(config Config, deps Deps) (*Server, error) {
	if deps.Transcriber == nil {
		return nil, errors.New("server: transcriber is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	// Set Gin mode based on environment
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}

	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogging(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(httpMetrics.Handler())

	serviceContainer := &v1routes.ServiceContainer{
		TranscriptionService: services.NewTranscriptionService(deps.Transcriber, deps.ModelName),
	}
	if deps.Store != nil {
		serviceContainer.StorageService = services.NewStorageService(deps.Store, config.UploadPrefix)
	}

	s := &Server{
		config:  config,
		router:  router,
		logger:  logger,
		storage: serviceContainer.StorageService,
		errCh:   make(chan error, 1),
	}

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	api := router.Group("/api")
	{
		v1 := api.Group("/v1")
		v1routes.RegisterRoutes(v1, serviceContainer)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Object Whisper API",
			"version": "1.0",
			"model":   deps.ModelName,
			"endpoints": gin.H{
				"health":         "/health",
				"metrics":        "/metrics",
				"transcriptions": "/api/v1/transcriptions",
				"upload":         "/api/v1/transcriptions/upload",
				"objects":        "/api/v1/objects",
			},
		})
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s, nil
}

func (s *Server) health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
		Checks:    map[string]string{},
	}
	status := http.StatusOK

	if s.storage != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := s.storage.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks["storage"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["storage"] = "ok"
		}
	}

	c.JSON(status, resp)
}

// Start starts the API server. Serve errors are reported on Errors.
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("host", s.config.Host),
		zap.String("port", s.config.Port),
		zap.String("environment", s.config.Environment),
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Failed to start server", zap.Error(err))
			s.errCh <- err
		}
	}()

	s.logger.Info("API server started successfully", zap.String("address", s.httpServer.Addr))
	return nil
}

// Errors delivers the error that stopped the listener, if any.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.logger.Info("API server shutdown complete")
	return nil
}

// Router returns the Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
