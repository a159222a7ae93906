package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/namefreezers/weather-dashboard/internal/weather"
)

// weatherRequest defines the expected query parameter for GET /api/weather
type weatherRequest struct {
	City string `form:"city" binding:"required"`
}

// weatherResponse is the live summary for one city, temperatures in °F
type weatherResponse struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
}

// WeatherHandler returns a Gin handler for GET /api/weather
func WeatherHandler(fetcher weather.Fetcher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req weatherRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		obs, err := fetcher.FetchCurrent(c.Request.Context(), req.City)
		if err != nil {
			// provider status, transport and decode failures alike; details stay in the log
			logger.Error("weather fetch failed", zap.String("city", req.City), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "weather provider unavailable"})
			return
		}

		c.JSON(http.StatusOK, weatherResponse{
			City:        req.City,
			Temperature: obs.Summary.Temp,
			FeelsLike:   obs.Summary.FeelsLike,
			Humidity:    obs.Summary.Humidity,
			Description: obs.Summary.Description,
		})
	}
}
