package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	clts "whalebot/clients"
	"whalebot/config"
	"whalebot/internal/app"
)

func main() {
	// Load config from .env and environment variables
	cfg, cfgErr := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfgErr != nil {
		logger.Fatal("invalid configuration", zap.Error(cfgErr))
	}
	logger.Info("starting whalebot",
		zap.String("stage", cfg.Stage),
		zap.Bool("isProd", cfg.IsProd()),
		zap.String("config", cfg.Summary()),
	)

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	runner := app.NewRunner(clients, cfg)
	if err := runner.Run(ctx); err != nil {
		logger.Fatal("runner failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg != nil && cfg.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
