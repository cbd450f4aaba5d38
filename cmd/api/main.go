package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activity-archive/internal/activity"
	"activity-archive/internal/api"
	"activity-archive/internal/archive"
	"activity-archive/internal/cache"
	"activity-archive/internal/config"
	"activity-archive/internal/db"
	"activity-archive/internal/github"
	"activity-archive/internal/logging"
	"activity-archive/internal/redis"
	"activity-archive/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting_api", "service", "activity-archive-api", "http_addr", cfg.HTTPAddr,
		"github_base_url", cfg.GitHubBaseURL, "token", logging.MaskToken(cfg.GitHubToken))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DBDSN == "" {
		logger.Error("missing_db_dsn")
		os.Exit(1)
	}

	dbConn, err := db.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Error("db_connect_failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	redisClient, err := redis.New(cfg.RedisDSN)
	if err != nil {
		logger.Error("redis_connect_failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	activityStore := store.New(logger, dbConn)
	if err := activityStore.Migrate(ctx); err != nil {
		logger.Error("migrate_failed", "error", err)
		os.Exit(1)
	}

	fetcher := github.NewFetcher(logger, github.FetcherOptions{
		BaseURL:        cfg.GitHubBaseURL,
		Token:          cfg.GitHubToken,
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
	})

	activityCache := cache.New(logger, redisClient)

	persister := activity.NewPersister(logger, activityStore)
	persister.Start(4)

	svc := activity.NewService(logger, fetcher, activityCache, activityStore, persister)

	var exporter *archive.Exporter
	if cfg.ArchiveBucket != "" {
		objStore, err := archive.NewS3Store(ctx, archive.S3Config{
			Endpoint:  cfg.ArchiveEndpoint,
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.ArchiveRegion,
			PublicURL: cfg.ArchivePublicURL,
		})
		if err != nil {
			logger.Error("archive_init_failed", "error", err)
			os.Exit(1)
		}
		exporter = archive.NewExporter(logger, activityStore, objStore)
		logger.Info("archive_configured", "bucket", cfg.ArchiveBucket)
	}

	srv := api.NewServer(logger, cfg, svc, exporter, dbConn, redisClient)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_listen_failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("api_started", "addr", cfg.HTTPAddr)

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	} else {
		logger.Info("http_server_stopped")
	}

	// drain queued persistence work before closing connections
	persister.Stop()

	if err := redisClient.Close(); err != nil {
		logger.Warn("redis_close_error", "error", err)
	}
	dbConn.Close()

	logger.Info("api_stopped")
}
