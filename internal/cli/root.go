package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"activity-archive/internal/activity"
	"activity-archive/internal/cache"
	"activity-archive/internal/config"
	"activity-archive/internal/db"
	"activity-archive/internal/github"
	"activity-archive/internal/logging"
	"activity-archive/internal/redis"
	"activity-archive/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "activity-archive",
	Short: "GitHub activity tracker",
	Long:  "Fetches a user's recent GitHub activity, caches it, records it for historical query, and renders it for display.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app wires the same components as the API server, but tolerates missing
// backends: without Redis the cache is skipped, without Postgres the history
// commands are unavailable and fetches are not recorded.
type app struct {
	cfg       config.Config
	svc       *activity.Service
	store     *store.ActivityStore // nil without DB_DSN
	persister *activity.Persister  // nil without DB_DSN
	dbConn    *db.DB
	redis     *redis.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// stdout belongs to command output; logs go to stderr, quiet by default
	logger := logging.NewWithWriter(os.Stderr, getenvDefault("CLI_LOG_LEVEL", "error"))

	a := &app{cfg: cfg}

	fetcher := github.NewFetcher(logger, github.FetcherOptions{
		BaseURL:        cfg.GitHubBaseURL,
		Token:          cfg.GitHubToken,
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
	})

	var eventCache activity.EventCache
	if redisClient, err := redis.New(cfg.RedisDSN); err == nil {
		a.redis = redisClient
		eventCache = cache.New(logger, redisClient)
	}

	var recordStore activity.RecordStore
	if cfg.DBDSN != "" {
		dbConn, err := db.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.dbConn = dbConn
		a.store = store.New(logger, dbConn)
		if err := a.store.Migrate(ctx); err != nil {
			dbConn.Close()
			return nil, err
		}
		recordStore = a.store

		a.persister = activity.NewPersister(logger, a.store)
		a.persister.Start(2)
	}

	a.svc = activity.NewService(logger, fetcher, eventCache, recordStore, a.persister)
	return a, nil
}

// close drains queued persistence work so a short-lived command still gets
// its fetches recorded, then releases connections.
func (a *app) close() {
	if a.persister != nil {
		a.persister.Stop()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.dbConn != nil {
		a.dbConn.Close()
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
