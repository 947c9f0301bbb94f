package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	// DefaultCity substitutes empty city input on every endpoint.
	DefaultCity string

	// UpdateInterval is the forced-refresh cadence for cities with live
	// stream subscribers.
	UpdateInterval time.Duration

	// StaleAfter is how long a cached snapshot satisfies non-forced reads.
	StaleAfter time.Duration

	// FetchTimeout bounds each outbound request to a source.
	FetchTimeout time.Duration

	// Rate limiting: fixed window size and per-scope request limits.
	RateWindow       time.Duration
	RateLimitAPI     int
	RateLimitRefresh int
	RateLimitStream  int

	// WarmCities are refreshed periodically so first readers hit a warm
	// cache. Empty disables the warm-refresh job.
	WarmCities   []string
	WarmInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:             getenvDefault("PORT", "8080"),
		DefaultCity:      getenvDefault("DEFAULT_CITY", "Москва"),
		RateLimitAPI:     getenvInt("RATE_LIMIT_API", 90),
		RateLimitRefresh: getenvInt("RATE_LIMIT_REFRESH", 30),
		RateLimitStream:  getenvInt("RATE_LIMIT_STREAM", 45),
	}

	var err error
	if cfg.UpdateInterval, err = getenvDuration("UPDATE_INTERVAL", "30s"); err != nil {
		return nil, err
	}
	if cfg.StaleAfter, err = getenvDuration("STALE_AFTER", "25s"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "12s"); err != nil {
		return nil, err
	}
	if cfg.RateWindow, err = getenvDuration("RATE_WINDOW", "60s"); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	if raw := os.Getenv("WARM_CITIES"); raw != "" {
		for _, city := range strings.Split(raw, ",") {
			if city = strings.TrimSpace(city); city != "" {
				cfg.WarmCities = append(cfg.WarmCities, city)
			}
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
