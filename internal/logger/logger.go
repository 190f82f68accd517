package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alkime/snacks/internal/config"
)

// SetupLogger configures structured logging based on environment.
func SetupLogger(cfg *config.Config) *slog.Logger {
	return setup(os.Stdout, cfg)
}

func setup(w io.Writer, cfg *config.Config) *slog.Logger {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: Level(cfg),
	})

	logger := slog.New(handler).With("service", "snacks")
	slog.SetDefault(logger)

	return logger
}

// Level picks the log level: LOG_LEVEL when it parses, else debug in
// development and info everywhere else.
func Level(cfg *config.Config) slog.Level {
	var level slog.Level
	if cfg.LogLevel != "" && level.UnmarshalText([]byte(cfg.LogLevel)) == nil {
		return level
	}

	if cfg.Env == "development" {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}

// SetupFileLogger routes logs to a text file so they do not corrupt a
// full-screen terminal UI. The caller closes the returned file.
func SetupFileLogger(path string, level slog.Level) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	//nolint:gosec // path comes from the user's own flags
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))

	return f, nil
}
