package weather

import (
	"context"

	"github.com/namefreezers/weather-dashboard/internal/weather/types"
)

// Fetcher returns the current weather for a city.
type Fetcher interface {
	FetchCurrent(ctx context.Context, city string) (types.Observation, error)
}
