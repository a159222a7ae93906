package services

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/namefreezers/weather-dashboard/internal/cloud"
	"github.com/namefreezers/weather-dashboard/internal/config"
	"github.com/namefreezers/weather-dashboard/internal/keycache"
	"github.com/namefreezers/weather-dashboard/internal/repository"
	"github.com/namefreezers/weather-dashboard/internal/weather/openweathermap"
)

// BuildDashboard constructs a Dashboard that:
// 1) fetches from OpenWeatherMap
// 2) provisions KMS and S3 through the AWS default credential chain
// 3) remembers a created key in Redis when REDIS_ADDR is set
// 4) indexes stored snapshots in Postgres when DATABASE_URL is set
// The optional backends are skipped with a warning when unreachable.
// The returned cleanup closes whatever was opened.
func BuildDashboard(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.Logger) (*Dashboard, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	owm, err := openweathermap.NewClient(cfg, nil)
	if err != nil {
		return nil, cleanup, fmt.Errorf("openweathermap client: %w", err)
	}

	awsCfg, err := cloud.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	s3Client, kmsClient := cloud.NewClients(awsCfg)

	deps := Deps{
		Fetcher: owm,
		Keys:    cloud.NewKeyManager(kmsClient, logger),
		Store:   cloud.NewBucket(s3Client, cfg.BucketName, awsCfg.Region, logger),
		Out:     out,
	}

	if cfg.RedisAddr != "" {
		rdb, err := keycache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn("kms key cache disabled", zap.Error(err))
		} else {
			closers = append(closers, func() { _ = rdb.Close() })
			deps.Cache = keycache.NewRedisCache(rdb, logger)
		}
	}

	if cfg.DatabaseURL != "" {
		db, err := repository.OpenDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("snapshot index disabled", zap.Error(err))
		} else {
			closers = append(closers, func() { _ = db.Close() })
			repo := repository.NewSnapshotRepository(db, logger)
			if err := repo.EnsureSchema(ctx); err != nil {
				logger.Warn("snapshot index disabled", zap.Error(err))
			} else {
				deps.Index = repo
			}
		}
	}

	return NewDashboard(deps, cfg, logger), cleanup, nil
}
