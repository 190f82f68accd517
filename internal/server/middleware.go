package server

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/alkime/snacks/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// setupSecurityMiddleware configures and applies security middleware to the router
func setupSecurityMiddleware(router *gin.Engine, cfg *config.Config, logger *slog.Logger) {
	// HSTS only makes sense behind TLS in production
	stsSeconds := int64(0)
	if cfg.IsProduction() {
		stsSeconds = int64(cfg.HSTSMaxAge)
	}

	//nolint:exhaustruct // remaining secure options keep their defaults
	secureMiddleware := secure.New(secure.Config{
		STSSeconds:            stsSeconds,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: config.BuildCSP(cfg.CSPMode),
	})
	router.Use(secureMiddleware)

	logger.Debug("Configured security middleware",
		"hsts_enabled", cfg.IsProduction(),
		"csp_mode", cfg.CSPMode,
	)
}

// setupCORSMiddleware lets a browser client hosted elsewhere call the API.
// Without ALLOWED_ORIGINS only same-origin requests are served.
func setupCORSMiddleware(router *gin.Engine, cfg *config.Config, logger *slog.Logger) {
	if len(cfg.AllowedOrigins) == 0 {
		return
	}

	corsConfig := cors.DefaultConfig()
	if slices.Contains(cfg.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	router.Use(cors.New(corsConfig))

	logger.Debug("Configured CORS", "origins", cfg.AllowedOrigins)
}

// setupStaticFiles serves the web client for any path no API route claims.
func setupStaticFiles(router *gin.Engine, cfg *config.Config, logger *slog.Logger) {
	if cfg.StaticDir == "" {
		return
	}

	router.Use(static.Serve("/", static.LocalFile(cfg.StaticDir, false)))
	logger.Debug("Serving static files", "dir", cfg.StaticDir)
}

// requestLogger tags each request with an ID and logs its outcome. Handlers
// fetch the tagged logger with loggerFrom.
func requestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		log := base.With("request_id", requestID)
		c.Set(loggerKey, log)

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		log.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"latency", time.Since(start),
		)
	}
}

func loggerFrom(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if log, ok := v.(*slog.Logger); ok {
			return log
		}
	}

	return fallback
}
