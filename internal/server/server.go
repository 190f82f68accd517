package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alkime/snacks/internal/config"
	"github.com/alkime/snacks/internal/content"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Transcriber turns one recorded answer into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, hint string) (string, error)
}

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	logger      *slog.Logger
	router      *gin.Engine
	transcriber Transcriber
	coach       content.Coach
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, transcriber Transcriber, coach content.Coach) *Server {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// Configure proxy trust for production (Fly.io)
	if cfg.IsProduction() {
		router.TrustedPlatform = gin.PlatformFlyIO
		logger.Debug("Configured trusted platform", "platform", "fly.io")
	}

	server := &Server{
		config:      cfg,
		logger:      logger,
		router:      router,
		transcriber: transcriber,
		coach:       coach,
	}

	router.Use(requestLogger(logger), gin.Recovery())
	setupSecurityMiddleware(router, cfg, logger)
	setupCORSMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	//nolint:exhaustruct // timeouts stay zero so workout streams are not cut off
	httpServer := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "port", s.config.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}

	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/transcribe", s.handleTranscribe)
		api.POST("/workout", s.handleWorkout)
	}

	setupStaticFiles(s.router, s.config, s.logger)
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "snacks",
	})
}
