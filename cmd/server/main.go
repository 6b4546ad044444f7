package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/JonMunkholm/pricing/internal/config"
	"github.com/JonMunkholm/pricing/internal/core"
	"github.com/JonMunkholm/pricing/internal/logging"
	"github.com/JonMunkholm/pricing/internal/metrics"
	"github.com/JonMunkholm/pricing/internal/store"
	"github.com/JonMunkholm/pricing/internal/web"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// backend is a store that also keeps the audit trail and can be seeded.
type backend interface {
	core.Store
	core.AuditLog
	store.Seeder
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx := context.Background()
	db, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.Store.SeedDemoData {
		if err := store.SeedDemo(ctx, db); err != nil {
			slog.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		slog.Info("demo data loaded", "customers", len(store.DemoCustomers()))
	}

	var (
		gatherer prometheus.Gatherer
		m        *metrics.SubmissionMetrics
	)
	if cfg.Metrics.Enabled {
		m = metrics.NewSubmissionMetrics(prometheus.DefaultRegisterer)
		gatherer = prometheus.DefaultGatherer
	}

	limiter := core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime, m.SetInFlight)
	service := core.NewService(db,
		core.WithLimiter(limiter),
		core.WithMetrics(m),
		core.WithAudit(db),
	)

	server := web.NewServer(service, cfg, gatherer)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight submissions finish before closing connections
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for submissions to complete", "active", status.Active)
			if err := service.Drain(shutdownCtx); err != nil {
				slog.Warn("submissions did not complete in time", "error", err)
			} else {
				slog.Info("all submissions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		closeStore()
		os.Exit(1)
	}

	<-stopped
	slog.Info("server stopped")
}

// openStore selects the storage backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.StoreConfig) (backend, func(), error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendMemory:
		return store.NewMemory(), func() {}, nil

	case config.BackendPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		pg, err := store.OpenPostgres(connectCtx, cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("connected to database", "max_conns", cfg.MaxConns)
		return pg, pg.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
