package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ScheduledPublisher/internal/app"
	"ScheduledPublisher/internal/config"
	"ScheduledPublisher/internal/logging"
)

var once = flag.Bool("once", false, "Run a single sweep and exit")

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	if *once {
		count, err := application.RunOnce(ctx)
		if err != nil {
			logger.Error("sweep failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sweep finished", "transitions", count)
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
