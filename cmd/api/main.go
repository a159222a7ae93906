package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/namefreezers/weather-dashboard/internal/config"
	"github.com/namefreezers/weather-dashboard/internal/handlers"
	"github.com/namefreezers/weather-dashboard/internal/logging"
	"github.com/namefreezers/weather-dashboard/internal/repository"
	"github.com/namefreezers/weather-dashboard/internal/weather/openweathermap"
)

func main() {
	// 1) Load configuration from environment
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

	// 3) Live weather comes straight from OpenWeatherMap
	fetcher, err := openweathermap.NewClient(cfg, nil)
	if err != nil {
		logger.Fatal("failed to initialize weather client", zap.Error(err))
	}

	// 4) The snapshot index is optional
	var lister handlers.SnapshotLister
	if cfg.DatabaseURL != "" {
		db, err := repository.OpenDB(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		lister, err = snapshotLister(context.Background(), db, logger)
		if err != nil {
			logger.Fatal("failed to prepare snapshot index", zap.Error(err))
		}
	} else {
		logger.Warn("DATABASE_URL not set, /api/snapshots will answer 503")
	}

	// 5) Router
	router := gin.Default()
	handlers.RegisterRoutes(router, fetcher, lister, logger)

	addr := ":" + cfg.Port
	logger.Info("starting API server", zap.String("address", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// snapshotLister creates the snapshot table when missing so a fresh database
// serves an empty list instead of failing.
func snapshotLister(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (handlers.SnapshotLister, error) {
	repo := repository.NewSnapshotRepository(db, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
