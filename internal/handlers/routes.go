package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/namefreezers/weather-dashboard/internal/weather"
)

// RegisterRoutes mounts every handler under /api. lister may be nil.
func RegisterRoutes(router *gin.Engine, fetcher weather.Fetcher, lister SnapshotLister, logger *zap.Logger) {
	api := router.Group("/api")
	{
		api.GET("/health", HealthHandler())
		api.GET("/weather", WeatherHandler(fetcher, logger))
		api.GET("/snapshots", SnapshotsHandler(lister, logger))
	}
}
