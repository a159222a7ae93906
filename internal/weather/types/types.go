package types

import "errors"

// Fetch failures. Provider clients wrap exactly one of these.
var (
	ErrTransport         = errors.New("weather provider unreachable")
	ErrUnexpectedStatus  = errors.New("weather provider returned unexpected status")
	ErrMalformedResponse = errors.New("weather provider returned malformed response")
)

// Summary is the human-facing subset of an observation. Temperatures are in °F.
type Summary struct {
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
}

// Observation is one provider response for one city.
// Payload is the raw JSON body as returned by the provider.
type Observation struct {
	City    string         `json:"city"`
	Summary Summary        `json:"summary"`
	Payload map[string]any `json:"payload"`
}

// Empty reports whether the observation carries no provider data.
func (o Observation) Empty() bool {
	return len(o.Payload) == 0
}
