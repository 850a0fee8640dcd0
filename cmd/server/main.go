package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/SenjeyB/LinkadooDemo/internal/api"
	"github.com/SenjeyB/LinkadooDemo/internal/broker"
	"github.com/SenjeyB/LinkadooDemo/internal/codec"
	"github.com/SenjeyB/LinkadooDemo/internal/config"
	"github.com/SenjeyB/LinkadooDemo/internal/store"
	"github.com/SenjeyB/LinkadooDemo/internal/token"
)

// Development fallbacks; production refuses to start without real
// values (see config.Load).
const (
	devJWTSecret  = "linkadoo-development-signing-secret-0"
	devMessageKey = "MySuperSecretKey"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Token service and message codec fail fast on bad key material.
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" && cfg.IsDevelopment() {
		logger.Warn().Msg("JWT_SECRET not set, using development secret")
		jwtSecret = devJWTSecret
	}
	tokens, err := token.New(jwtSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("token service configuration failed")
	}

	messageKey := cfg.MessageKey
	if messageKey == "" && cfg.IsDevelopment() {
		logger.Warn().Msg("MESSAGE_KEY not set, using development key")
		messageKey = devMessageKey
	}
	messageCodec, err := codec.New(messageKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("message codec configuration failed")
	}

	// Initialize storage: PostgreSQL when configured, SQLite otherwise.
	var dataStore store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		dataStore = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		dataStore = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite")
	}
	defer dataStore.Close()

	// Broadcast dispatcher
	dispatcher := broker.New(logger)

	// Create router
	router := api.NewRouter(logger, dataStore, tokens, messageCodec, dispatcher)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting Linkadoo server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
