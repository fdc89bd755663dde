package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/medpass/examkit/internal/backend"
	"github.com/medpass/examkit/internal/config"
	"github.com/medpass/examkit/internal/engine"
	"github.com/medpass/examkit/internal/logger"
	"github.com/medpass/examkit/internal/session"
	"github.com/medpass/examkit/internal/tui"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

func main() {
	cfg := config.Load()

	examID := cfg.ExamID
	if len(os.Args) > 1 {
		examID = os.Args[1]
	}
	if examID == "" {
		fmt.Fprintln(os.Stderr, "usage: examtui <exam-id>")
		os.Exit(2)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile("examtui.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := logger.SetupWriter(cfg.LogLevel, "json", logFile)
	log.Info().Str("exam_id", examID).Str("backend", cfg.BackendURL).Msg("starting exam client")

	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout, log)
	if err := client.Login(context.Background(), cfg.Username, cfg.Password); err != nil {
		log.Error().Err(err).Msg("login failed")
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	store := session.NewStore(log)
	sink := tui.NewSink()
	orch := engine.New(store, client, sink, log)

	timer := session.NewTimer(store, log, orch.HandleExpiry)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timer.Run(ctx)

	if err := tui.Run(orch, sink, examID); err != nil {
		log.Error().Err(err).Msg("ui exited with error")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
