package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gymgate/server/internal/config"
	"github.com/gymgate/server/internal/db"
	"github.com/gymgate/server/internal/events"
	"github.com/gymgate/server/internal/gymgate/device"
	"github.com/gymgate/server/internal/gymgate/middleware"
	"github.com/gymgate/server/internal/gymgate/service"
	"github.com/gymgate/server/internal/gymgate/store/sqlite"
	"github.com/gymgate/server/internal/httpapi"
	"github.com/gymgate/server/internal/logging"
	"github.com/gymgate/server/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a dev convenience; absence is fine.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, database, db.SeedDevOptions{DeviceSerial: cfg.DeviceSerial}); err != nil {
			return fmt.Errorf("seed dev data: %w", err)
		}
	}

	writer := db.NewWorker(database)
	defer writer.Close()

	members := sqlite.NewMemberStore(database, writer)
	vendor := sqlite.NewVendorStore(database, writer)
	auditLog := sqlite.NewAccessEventStore(database, writer)

	m := metrics.New()

	hub := events.NewHub(m, logger)
	go hub.Run(ctx)

	transport := device.NewTransport(cfg.DeviceHost, cfg.DevicePort, cfg.DeviceTimeout)
	client := device.NewClient(transport, logger)

	queue := middleware.NewAdapter(vendor, cfg.DefaultDeviceID, logger)

	accessSvc := service.NewAccessService(members, logger)
	notifier := service.NewNotifier(members, auditLog, hub, m, logger)
	syncSvc := service.NewSyncService(client, queue, service.SyncConfig{
		Mode:               cfg.Mode,
		TargetDeviceSerial: cfg.DeviceSerial,
		MaxAttempts:        cfg.SyncMaxAttempts,
		RetryBackoff:       cfg.SyncRetryBackoff,
	}, m, logger)

	prober := service.NewHealthProber(client, cfg.HealthProbeInterval, logger)
	prober.Start(ctx)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:  logger,
		Addr:    cfg.HTTPAddr,
		Access:  accessSvc,
		Notify:  notifier,
		Sync:    syncSvc,
		Members: members,
		Prober:  prober,
		Stream:  hub,
		Metrics: m,
	})

	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddr).
			Str("mode", string(cfg.Mode)).
			Str("device", transport.Addr()).
			Msg("gymgate server listening")
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	prober.Stop()
	return nil
}
