package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vodhub/internal/catalog"
	"vodhub/internal/config"
	"vodhub/internal/events"
	"vodhub/internal/httpapi"
	"vodhub/internal/logging"
	"vodhub/internal/media"
	"vodhub/internal/pipeline"
	"vodhub/internal/status"
	"vodhub/internal/store"
	"vodhub/internal/tracing"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging)

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.Init(cfg.Tracing)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize tracing")
		}
		defer closer.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metadata store.
	var cat catalog.Store
	if cfg.Database.Enabled {
		pg, err := catalog.NewPostgresStore(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pg.Close()
		cat = pg
		log.Info().Msg("using postgres catalog")
	} else {
		cat = catalog.NewMemoryStore()
		log.Info().Msg("using in-memory catalog")
	}

	// Artifact store.
	var artifacts store.Store
	switch cfg.Storage.Backend {
	case "s3":
		s3, err := store.NewS3(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize s3 storage")
		}
		artifacts = s3
		log.Info().Str("bucket", cfg.Storage.BucketName).Msg("using s3 artifact store")
	default:
		local, err := store.NewLocal(cfg.Storage.RootDir)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize local storage")
		}
		artifacts = local
		log.Info().Str("root", cfg.Storage.RootDir).Msg("using local artifact store")
	}

	// Progress cache. Optional: without Redis, polling still works but
	// reports no mid-job percentage.
	var progress *status.ProgressCache
	if cache, err := status.NewProgressCache(cfg.Redis, cfg.Pipeline.ProgressTTL); err != nil {
		log.Warn().Err(err).Msg("progress cache unavailable, continuing without it")
	} else {
		progress = cache
		defer cache.Close()
	}

	// Lifecycle events.
	var publisher events.Publisher = events.Nop{}
	if cfg.Events.Enabled {
		amqpPub, err := events.NewAMQPPublisher(cfg.Events)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer amqpPub.Close()
		publisher = amqpPub
		log.Info().Str("exchange", cfg.Events.Exchange).Msg("event publishing enabled")
	}

	// Pipeline.
	ffmpeg := media.NewFFmpeg(cfg.Pipeline.FFmpegPath, cfg.Pipeline.FFprobePath)

	var sink pipeline.ProgressSink
	if progress != nil {
		sink = progress
	}
	runner := pipeline.NewRunner(cat, artifacts, ffmpeg, ffmpeg, sink, publisher,
		cfg.Pipeline, logging.ForComponent(log, "pipeline"))

	scheduler := pipeline.NewScheduler(runner, cfg.Pipeline.WorkerCount, cfg.Pipeline.QueueSize,
		logging.ForComponent(log, "scheduler"))
	scheduler.Start(ctx, cfg.Pipeline.WorkerCount)

	// HTTP layer.
	var progressReader status.Progress
	if progress != nil {
		progressReader = progress
	}
	tracker := status.NewTracker(cat, progressReader, logging.ForComponent(log, "status"))

	server, err := httpapi.NewServer(cat, artifacts, scheduler, tracker, cfg,
		logging.ForComponent(log, "http"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create http server")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("workers did not drain in time")
	}
	cancel()

	log.Info().Msg("stopped")
}
