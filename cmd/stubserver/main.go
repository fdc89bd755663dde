package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medpass/examkit/internal/config"
	"github.com/medpass/examkit/internal/devserver"
	"github.com/medpass/examkit/internal/logger"
	"github.com/medpass/examkit/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Msg("Starting exam stub backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Seed Exams ────────────────────────────────────────────────────
	store := devserver.NewMemStore()
	if cfg.FixturePath != "" {
		if err := devserver.LoadFixture(store, cfg.FixturePath); err != nil {
			log.Fatal().Err(err).Str("path", cfg.FixturePath).Msg("Failed to load exam fixture")
		}
	} else {
		devserver.SeedSampleExams(store)
	}
	log.Info().Strs("exam_ids", store.ExamIDs()).Msg("Exams seeded")

	// ─── Auth ──────────────────────────────────────────────────────────
	authService, err := devserver.NewAuthService(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize auth")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	handler := devserver.NewHandler(store, authService, log)
	r := devserver.SetupRouter(handler, authService, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
