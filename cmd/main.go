package main

import (
	"context"
	"fmt"
	"gcoin-shop/internal/app"
	"gcoin-shop/internal/config"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	envDev   = "dev"
	envProd  = "prod"
	envLocal = "local"
)

func main() {
	cfg := config.MustLoad()

	fmt.Println(`
  ____        ____      _
 / ___|      / ___|___ (_)_ __
| |  _ _____| |   / _ \| | '_ \
| |_| |_____| |__| (_) | | | | |
 \____|      \____\___/|_|_| |_|`)

	log := setupLogger(cfg.Server.Env)

	log.Info("starting gcoin shop",
		slog.String("env", cfg.Server.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("notify", cfg.Notify.Provider),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(ctx, log, cfg)
	cancel()
	if err != nil {
		log.Error("failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go application.HTTPServer.MustRun()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	sign := <-stop

	log.Info("application stopping", slog.String("signal", sign.String()))

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := application.Stop(ctx); err != nil {
		log.Error("failed to stop gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("application stopped")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
