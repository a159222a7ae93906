package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/namefreezers/weather-dashboard/internal/config"
	"github.com/namefreezers/weather-dashboard/internal/logging"
	"github.com/namefreezers/weather-dashboard/internal/services"
)

func main() {
	// 1) Load configuration from environment (.env allowed)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// 2) Initialize structured logger
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3) Wire OpenWeatherMap, KMS, S3 and the optional cache/index
	dashboard, cleanup, err := services.BuildDashboard(ctx, cfg, os.Stdout, logger)
	defer cleanup()
	if err != nil {
		logger.Fatal("failed to initialize dashboard", zap.Error(err))
	}

	// 4) One pass over every city
	report := dashboard.Run(ctx)

	if code := exitCode(cfg, report); code != 0 {
		logger.Warn("run finished with failures", zap.String("run_id", report.RunID.String()))
		cleanup()
		_ = logger.Sync()
		os.Exit(code)
	}
}

// exitCode is 1 for a failed run under STRICT_EXIT and 0 otherwise.
func exitCode(cfg *config.Config, report services.Report) int {
	if cfg.StrictExit && report.Failed() {
		return 1
	}
	return 0
}
