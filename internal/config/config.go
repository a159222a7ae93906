package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultOpenWeatherBaseURL = "http://api.openweathermap.org/data/2.5/weather"
	defaultCities             = "Calgary,Ontario,New York"
)

// Config holds all the environment‐driven settings for the application.
type Config struct {
	// OpenWeatherMap
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	HTTPTimeout        time.Duration

	// AWS
	BucketName string
	KMSKeyID   string // optional; a key is created when empty
	AWSRegion  string // optional; SDK default chain when empty

	// Cities fetched on every run, in order.
	Cities []string

	// Redis (optional key cache)
	RedisAddr     string
	RedisPassword string

	// Postgres (optional snapshot index)
	DatabaseURL string

	// Scheduler & API
	ScheduleCron string
	Port         string

	StrictExit bool
	LogLevel   string
}

// Load reads and validates all required environment variables, applying defaults
// where appropriate. A .env file in the working directory is read first if present.
// It returns an error if any required variable is missing or malformed.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (*Config, error) {
	apiKey := os.Getenv("OPENWEATHER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY is required")
	}
	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET_NAME is required")
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", timeoutStr, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: must be positive", timeoutStr)
	}

	cities := splitCities(getenvDefault("DASHBOARD_CITIES", defaultCities))
	if len(cities) == 0 {
		return nil, fmt.Errorf("DASHBOARD_CITIES must name at least one city")
	}

	strict := false
	if v := os.Getenv("STRICT_EXIT"); v != "" {
		strict, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid STRICT_EXIT %q: %w", v, err)
		}
	}

	return &Config{
		OpenWeatherAPIKey:  apiKey,
		OpenWeatherBaseURL: getenvDefault("OPENWEATHER_BASE_URL", defaultOpenWeatherBaseURL),
		HTTPTimeout:        timeout,

		BucketName: bucket,
		KMSKeyID:   os.Getenv("AWS_KMS_KEY_ID"),
		AWSRegion:  os.Getenv("AWS_REGION"),

		Cities: cities,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		ScheduleCron: getenvDefault("SCHEDULE_CRON", "0 * * * *"),
		Port:         getenvDefault("PORT", "8080"),

		StrictExit: strict,
		LogLevel:   getenvDefault("LOG_LEVEL", "info"),
	}, nil
}

func splitCities(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
