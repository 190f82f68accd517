package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alkime/snacks/internal/config"
	"github.com/alkime/snacks/internal/content"
	"github.com/alkime/snacks/internal/logger"
	"github.com/alkime/snacks/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.SetupLogger(cfg)

	log.Info("Starting snacks server",
		"env", cfg.Env,
		"port", cfg.Port,
		"generation_provider", cfg.GenerationProvider,
		"transcription_model", cfg.TranscriptionModel,
		"static_dir", cfg.StaticDir,
	)

	transcriber := content.NewTranscriber(cfg.OpenAIAPIKey, content.WithModel(cfg.TranscriptionModel))

	coach, err := content.NewCoach(cfg.GenerationProvider, cfg.GenerationAPIKey(),
		content.WithModel(cfg.GenerationModel))
	if err != nil {
		log.Error("Failed to create workout coach", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, log, transcriber, coach)
	if err := srv.Run(ctx); err != nil {
		log.Error("Server stopped", "error", err)
		os.Exit(1) //nolint:gocritic // stop() only releases the signal handler
	}

	log.Info("Server stopped")
}
