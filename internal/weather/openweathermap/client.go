package openweathermap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/namefreezers/weather-dashboard/internal/config"
	"github.com/namefreezers/weather-dashboard/internal/weather/types"
)

// Client queries the OpenWeatherMap current weather endpoint in imperial units.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient returns a new Client, or an error if the API key is not set.
// A nil httpClient falls back to one using cfg.HTTPTimeout.
func NewClient(cfg *config.Config, httpClient *http.Client) (*Client, error) {
	if cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY is not set")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Client{
		apiKey:  cfg.OpenWeatherAPIKey,
		baseURL: cfg.OpenWeatherBaseURL,
		http:    httpClient,
	}, nil
}

// FetchCurrent implements weather.Fetcher.
func (c *Client) FetchCurrent(ctx context.Context, city string) (types.Observation, error) {
	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", c.apiKey)
	values.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return types.Observation{}, fmt.Errorf("openweathermap: failed to build request: %w", stripURL(err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.Observation{}, fmt.Errorf("%w: openweathermap: HTTP request failed: %v", types.ErrTransport, stripURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.Observation{}, fmt.Errorf(
			"%w: openweathermap: %d %s",
			types.ErrUnexpectedStatus, resp.StatusCode, http.StatusText(resp.StatusCode),
		)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Observation{}, fmt.Errorf("%w: openweathermap: reading body: %v", types.ErrTransport, err)
	}
	return decode(city, raw)
}

func decode(city string, raw []byte) (types.Observation, error) {
	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	// keep the provider's numbers verbatim in the stored snapshot
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return types.Observation{}, fmt.Errorf("%w: openweathermap: JSON decode error: %v", types.ErrMalformedResponse, err)
	}

	var body struct {
		Main struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return types.Observation{}, fmt.Errorf("%w: openweathermap: JSON decode error: %v", types.ErrMalformedResponse, err)
	}
	if body.Main.Temp == nil || body.Main.FeelsLike == nil || body.Main.Humidity == nil {
		return types.Observation{}, fmt.Errorf("%w: openweathermap: missing main readings", types.ErrMalformedResponse)
	}
	if len(body.Weather) == 0 {
		return types.Observation{}, fmt.Errorf("%w: openweathermap: no weather data in response", types.ErrMalformedResponse)
	}

	return types.Observation{
		City: city,
		Summary: types.Summary{
			Temp:        *body.Main.Temp,
			FeelsLike:   *body.Main.FeelsLike,
			Humidity:    *body.Main.Humidity,
			Description: body.Weather[0].Description,
		},
		Payload: payload,
	}, nil
}

// stripURL drops the request URL from net/http errors; its query carries the API key.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
