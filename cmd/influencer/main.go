package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/AdrianRomo/Influencer-Automation/internal/app"
	"github.com/AdrianRomo/Influencer-Automation/internal/config"
	"github.com/AdrianRomo/Influencer-Automation/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single pass over all sources and exit")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *once {
		err = application.RunOnce(ctx)
	} else {
		err = application.Run(ctx)
	}
	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
