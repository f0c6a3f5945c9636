package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"dailybrief/internal/app"
	"dailybrief/internal/config"
	"dailybrief/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single batch and exit")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := application.RunOnce(ctx); err != nil {
			logger.Error("batch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
