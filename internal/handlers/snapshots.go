package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/namefreezers/weather-dashboard/internal/repository"
)

// SnapshotLister is the read side of the snapshot index.
type SnapshotLister interface {
	ListByCity(ctx context.Context, city string, limit int) ([]repository.SnapshotRecord, error)
}

type snapshotsRequest struct {
	City  string `form:"city"  binding:"required"`
	Limit *int   `form:"limit" binding:"omitempty,min=1,max=100"`
}

// SnapshotsHandler handles GET /api/snapshots. A nil lister answers 503.
func SnapshotsHandler(lister SnapshotLister, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lister == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot index is not configured"})
			return
		}

		var req snapshotsRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		limit := 20
		if req.Limit != nil {
			limit = *req.Limit
		}

		recs, err := lister.ListByCity(c.Request.Context(), req.City, limit)
		if err != nil {
			logger.Error("failed to list snapshots", zap.String("city", req.City), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list snapshots"})
			return
		}
		if recs == nil {
			recs = []repository.SnapshotRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"city": req.City, "snapshots": recs})
	}
}

// HealthHandler handles GET /api/health
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
