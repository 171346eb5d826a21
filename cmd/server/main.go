package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nutri/internal/app"
	"nutri/internal/platform/config"
	"nutri/internal/platform/logger"
)

// main loads configuration, wires the application and serves until SIGINT or
// SIGTERM. Business logic lives in the internal packages.
func main() {
	if err := run(); err != nil {
		slog.Error("nutri exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging.Level, cfg.Server.Environment)
	slog.SetDefault(log)

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to release resources", "error", err)
		}
	}()

	log.Info("starting nutri", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver)
	if err := a.Run(ctx); err != nil {
		return err
	}
	log.Info("nutri stopped")
	return nil
}
