package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ingestion-api/internal/config"
	apphttp "ingestion-api/internal/handler/http"
	"ingestion-api/internal/product"
	"ingestion-api/internal/store"
	"ingestion-api/internal/user"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg := config.Load()

	pool, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure primary store")
	}

	// Best-effort: the process keeps serving even when the primary schema
	// could not be created, matching the original startup behavior.
	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		log.Warn().Err(err).Msg("Failed to create primary store schema")
	} else {
		log.Info().Msg("Primary store schema is up to date")
	}

	secondaryDB, err := store.OpenSecondary(cfg.SQLServerURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open secondary store")
	}

	primary := apphttp.Backend{
		Users:    user.NewService(user.NewPostgresRepository(pool)),
		Products: product.NewService(product.NewPostgresRepository(pool)),
	}
	secondary := apphttp.Backend{
		Users:    user.NewService(user.NewSQLRepository(secondaryDB)),
		Products: product.NewService(product.NewSQLRepository(secondaryDB)),
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      apphttp.NewRouter(primary, secondary),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	pool.Close()
	if err := secondaryDB.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close secondary store")
	}

	log.Info().Msg("Server stopped gracefully")
}
