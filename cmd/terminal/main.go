package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/events"
	"blendresto/internal/infra"
	"blendresto/internal/repository"
	"blendresto/internal/router"
	syncengine "blendresto/internal/sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Commit-then-notify bus: screens and the sync pusher refresh from it
	bus := events.NewBus()

	// Sync engine: outbox pusher + realtime inbox + periodic pull. The
	// terminal keeps taking orders with the hub down; these loops just idle.
	outboxRepo := repository.NewOutboxRepository(db)
	engine := syncengine.NewEngine(cfg, db, outboxRepo, bus)
	engine.Start(ctx)

	r := router.New(cfg, db, bus, engine)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().
			Str("unit_id", cfg.UnitID).
			Str("device_id", cfg.DeviceID).
			Str("rol", cfg.Rol).
			Msgf("terminal listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down terminal…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("terminal exited")
}
