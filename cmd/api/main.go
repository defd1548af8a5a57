package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/statement-recon/internal/api"
	"github.com/dvloznov/statement-recon/internal/app"
	"github.com/dvloznov/statement-recon/internal/config"
	"github.com/dvloznov/statement-recon/internal/jobs/inmemory"
	"github.com/dvloznov/statement-recon/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := logger.WithContext(context.Background(), log)

	jobStore := inmemory.NewStore()
	a, err := app.New(ctx, cfg, jobStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	if a.Storage == nil {
		log.Warn().Msg("No GCS bucket configured - gcs_uri uploads will be rejected")
	}

	handler := api.NewRouter(api.Deps{
		Runner:           a.Runner,
		Jobs:             jobStore,
		Ledger:           a.Ledger,
		PDF:              a.PDF,
		TempDir:          cfg.Server.TempDir,
		MaxUploadBytes:   cfg.PDF.MaxBytes,
		UploadsPerMinute: cfg.Server.UploadsPerMinute,
		Log:              log,
	})

	port := strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", port).
			Str("ledger", cfg.Ledger.Driver).
			Str("pdf_extractor", cfg.PDF.Extractor).
			Msg("Starting reconciliation API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
