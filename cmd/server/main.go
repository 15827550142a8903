/*
main.go - Application entry point

PURPOSE:
  Builds the vacation engine binary: the HTTP server plus the maintenance
  commands that operate on the same database.

COMMANDS:
  serve             Run the HTTP API (default when no command is given)
  migrate           Create or upgrade the schema and exit
  seed-holidays     Load the holiday calendar for a year
  import-employees  Upsert staff from a CSV export
  reset-requests    Delete every period, change request and audit entry
  token             Print a bearer token for an employee id

STARTUP SEQUENCE (serve):
  1. Load TOML config (--config), apply env overrides
  2. Set up slog (rotating JSON file + colored console)
  3. Open and migrate the SQLite store
  4. Wrap the holiday provider with the Redis cache when redis.addr is set
  5. Build the service, handler, router and alert scheduler
  6. Serve until SIGINT/SIGTERM, then shut down gracefully

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests (server.shutdown_timeout)
  3. Stop the alert scheduler
  4. Close Redis and the database

ENVIRONMENT:
  JWT_SECRET, DATABASE_PATH and REDIS_ADDR override the config file.

SEE ALSO:
  - config/config.go: Configuration fields and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/warp/vacation-engine/api"
	"github.com/warp/vacation-engine/calendar"
	"github.com/warp/vacation-engine/config"
	"github.com/warp/vacation-engine/logging"
	"github.com/warp/vacation-engine/store/rediscache"
	"github.com/warp/vacation-engine/store/sqlite"
	"github.com/warp/vacation-engine/vacation"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "vacation-engine",
	Short:         "Vacation request engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to the TOML config file")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// app holds what every command opens from the config.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *sqlite.Store
	closer io.Closer
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger, closer := logging.Setup(cfg.Log.File, level)
	slog.SetDefault(logger)

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			closer.Close()
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	store, err := sqlite.New(cfg.Database.Path, sqlite.WithDefaultSettings(cfg.Calendar))
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, store: store, closer: closer}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.closer.Close()
}

// service builds the vacation service over the store, reading the calendar
// through provider.
func (a *app) service(provider calendar.Provider, opts ...vacation.Option) *vacation.Service {
	opts = append([]vacation.Option{vacation.WithLogger(a.logger)}, opts...)
	return vacation.NewService(a.store, provider, opts...)
}

// =============================================================================
// SERVE
// =============================================================================

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, logger := a.cfg, a.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var provider calendar.Provider = a.store
	var cache *rediscache.Provider
	if cfg.Redis.Addr != "" {
		rdb, err := rediscache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer closeRedis(rdb, logger)
		cache = rediscache.New(a.store, rdb, cfg.Redis.TTL.Duration, logger)
		provider = cache
		logger.Info("holiday cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL.Duration)
	}

	svc := a.service(provider, vacation.WithMetrics(vacation.NewMetrics(reg)))

	handlerOpts := []api.HandlerOption{api.WithThreshold(cfg.Reports.MissingScheduleThreshold)}
	if cache != nil {
		handlerOpts = append(handlerOpts, api.WithCache(cache))
	}
	handler := api.NewHandler(svc, a.store, logger, handlerOpts...)

	auth := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if !auth.Enabled() {
		logger.Warn("jwt_secret is empty: trusting the " + api.ActorHeader + " header (development only)")
	}
	router := api.NewRouter(handler, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth:           auth,
		Logger:         logger,
		Registry:       reg,
	})

	var scheduler *api.AlertScheduler
	if cfg.Reports.ScanInterval.Duration > 0 {
		scheduler = api.NewAlertScheduler(svc, logger, reg)
		scheduler.Interval = cfg.Reports.ScanInterval.Duration
		scheduler.Threshold = cfg.Reports.MissingScheduleThreshold
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "database", cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func closeRedis(rdb *redis.Client, logger *slog.Logger) {
	if err := rdb.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}
}
