package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/portfolio-cms/media_server/internal"
	"github.com/portfolio-cms/media_server/internal/auth"
	"github.com/portfolio-cms/media_server/internal/health"
	"github.com/portfolio-cms/media_server/internal/status"
	"github.com/portfolio-cms/media_server/internal/storage"
	"github.com/portfolio-cms/media_server/internal/tracing"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const version = "1.0.0"

func main() {
	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
		return
	}
	setupLogger(config.Log)

	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
		return
	}

	shutdownTracing, err := tracing.Init(config.Tracing, "media_server", version)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing tracing")
		return
	}

	backend, err := storage.NewBackend(&config.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage backend")
		return
	}
	mediaService := storage.NewService(backend, config.Storage.MediaRoot)
	mediaEndpoints := storage.NewEndpoints(mediaService)

	sessions := auth.NewSessions(config.Auth)
	policy, err := auth.NewPolicy(config.Auth, sessions)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing auth policy")
		return
	}
	authEndpoints := auth.NewEndpoints(sessions, policy)

	healthEndpoints := health.NewEndpoints(version)
	statusEndpoints := status.NewEndpoints(version, config.Storage.Type, policy.Mode())

	requestHandler := internal.NewRequestHandler(config, policy, authEndpoints, statusEndpoints, healthEndpoints, mediaEndpoints)

	server := &fasthttp.Server{
		Handler:            requestHandler,
		Name:               "media_server",
		StreamRequestBody:  true,
		MaxRequestBodySize: config.Server.MaxBodyBytes,
		ReadTimeout:        5 * time.Minute,
		WriteTimeout:       5 * time.Minute,
		IdleTimeout:        2 * time.Minute,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
	}()

	log.Info().
		Int("port", config.Server.Port).
		Str("storage", string(config.Storage.Type)).
		Str("authMode", string(policy.Mode())).
		Str("mediaRoot", config.Storage.MediaRoot).
		Msg("Starting media server")

	if err := server.ListenAndServe(fmt.Sprintf(":%d", config.Server.Port)); err != nil {
		log.Fatal().Err(err).Msg("Error starting server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		log.Error().Err(err).Msg("Error flushing traces")
	}
}

func setupLogger(config internal.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if config.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
