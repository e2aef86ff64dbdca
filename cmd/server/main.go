/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the cost ledger server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, then environment, over defaults)
  2. Build the logger
  3. Open the persister selected by STORE_DRIVER
  4. Create the session hub, API handler and router
  5. Start the anomaly scanner (unless ANOMALY_SCAN_INTERVAL=0)
  6. Start server with graceful shutdown

ENVIRONMENT:
  PORT                   HTTP port (default 8080)
  APP_ENV                development | production (console vs JSON logs)
  LOG_LEVEL              zerolog level (default info)
  STORE_DRIVER           sqlite | postgres | redis | memory (default sqlite)
  SQLITE_PATH            SQLite file (default ./data/ledger.db, ":memory:" allowed)
  DATABASE_URL           Postgres URL (postgres driver)
  REDIS_URL              Redis URL (redis driver)
  CORS_ORIGINS           Comma-separated allow-list (default *)
  ANOMALY_SCAN_INTERVAL  Go duration (default 1h, 0 disables)
  STRICT_DIAGNOSTICS     Return engine warnings by default (default false)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scanner, then every restaurant session
  4. Close the persister

SEE ALSO:
  - config/config.go: Settings
  - api/server.go: Router configuration
  - store/hub.go: Per-restaurant sessions
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/warp/cost-ledger/api"
	"github.com/warp/cost-ledger/config"
	"github.com/warp/cost-ledger/store"
	"github.com/warp/cost-ledger/store/postgres"
	"github.com/warp/cost-ledger/store/redis"
	"github.com/warp/cost-ledger/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger()

	persister, closePersister, err := openPersister(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to initialize store")
	}
	defer closePersister()

	hub := store.NewHub(persister, log)
	handler := api.NewHandler(hub, persister, log, cfg.StrictDiagnostics)
	router := api.NewRouter(handler, cfg.Origins())

	scanner := api.NewAnomalyScanner(hub, handler.Runs, log, cfg.ScanInterval)
	scanner.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Int("port", cfg.Port).
			Str("env", cfg.Env).
			Str("store", cfg.StoreDriver).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	scanner.Stop()
	hub.Close()

	log.Info().Msg("server stopped")
}

// openPersister opens the store named by STORE_DRIVER. The returned func
// closes it.
func openPersister(ctx context.Context, cfg *config.Config) (store.Persister, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemory(), func() {}, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil

	case config.DriverRedis:
		rdb, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return rdb, func() { rdb.Close() }, nil

	default:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}
}
