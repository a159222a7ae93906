package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/namefreezers/weather-dashboard/internal/config"
	"github.com/namefreezers/weather-dashboard/internal/logging"
	"github.com/namefreezers/weather-dashboard/internal/services"
)

func main() {
	// 1) Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// 2) Init logger
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3) Build the workflow once; a created key is reused by later runs
	dashboard, cleanup, err := services.BuildDashboard(ctx, cfg, os.Stdout, logger)
	defer cleanup()
	if err != nil {
		logger.Fatal("failed to initialize dashboard", zap.Error(err))
	}

	// 4) Build cron (standard 5-field, minute resolution). SkipIfStillRunning
	// keeps runs strictly sequential.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc(cfg.ScheduleCron, func() {
		report := dashboard.Run(ctx)
		if report.Failed() {
			logger.Warn("scheduled run finished with failures",
				zap.String("run_id", report.RunID.String()),
				zap.Int("stored", report.Stored()),
			)
		}
	})
	if err != nil {
		logger.Fatal("unable to schedule cron job", zap.String("cronSpec", cfg.ScheduleCron), zap.Error(err))
	}

	logger.Info("starting scheduler", zap.String("cronSpec", cfg.ScheduleCron))
	c.Start()

	<-ctx.Done()
	logger.Info("stopping scheduler")
	<-c.Stop().Done()
}
