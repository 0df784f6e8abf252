package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	WorkerBaseURL     string
	RateLimitDiscover RateLimitConfig
	TokenTTL          time.Duration

	DiscoveryCost     int
	StartingCredits   int
	PhoneRegion       string
	LogLevel          string
	StatusRankingFile string
	RunMigrations     bool
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret"),
		Port:              getEnv("PORT", "8080"),
		WorkerBaseURL:     getEnv("WORKER_BASE_URL", "http://worker:9000"),
		TokenTTL:          parseDuration(getEnv("JWT_TTL", "24h")),
		PhoneRegion:       strings.ToUpper(getEnv("PHONE_REGION", "FR")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		StatusRankingFile: os.Getenv("STATUS_RANKING_FILE"),
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_DISCOVER", "30/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_DISCOVER value: %w", err)
	}
	cfg.RateLimitDiscover = rl

	if cfg.DiscoveryCost, err = parseInt("DISCOVERY_COST", 8, 1); err != nil {
		return nil, err
	}
	if cfg.StartingCredits, err = parseInt("STARTING_CREDITS", 0, 0); err != nil {
		return nil, err
	}

	cfg.RunMigrations, err = strconv.ParseBool(getEnv("RUN_MIGRATIONS", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_MIGRATIONS value: %w", err)
	}

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

// parseInt reads an integer variable no smaller than floor.
func parseInt(key string, fallback, floor int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if v < floor {
		return 0, fmt.Errorf("invalid %s value %d: must be at least %d", key, v, floor)
	}
	return v, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}
