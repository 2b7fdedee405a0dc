package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the planner service.
type Config struct {
	DatabaseURL         string
	ListenAddr          string
	StoreType           string // "sqlite" or "memory"
	RefreshInterval     time.Duration
	RefreshAt           string // optional "HH:MM"; overrides the interval
	WindowDays          int
	RefillThresholdDays int
	Development         bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ListenAddr:          strings.TrimSpace(os.Getenv("LISTEN_ADDR")),
		StoreType:           strings.ToLower(strings.TrimSpace(os.Getenv("STORE"))),
		RefreshInterval:     parseInterval(strings.TrimSpace(os.Getenv("REFRESH_INTERVAL_HOURS"))),
		RefreshAt:           strings.TrimSpace(os.Getenv("REFRESH_AT")),
		WindowDays:          parsePositiveInt(os.Getenv("WINDOW_DAYS")),
		RefillThresholdDays: parsePositiveInt(os.Getenv("REFILL_THRESHOLD_DAYS")),
		Development:         parseBool(os.Getenv("LOG_DEVELOPMENT")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "series_planner.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.StoreType == "" {
		cfg.StoreType = "sqlite"
	}
	if cfg.StoreType != "sqlite" && cfg.StoreType != "memory" {
		return cfg, fmt.Errorf("STORE must be sqlite or memory, got %q", cfg.StoreType)
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 6 * time.Hour
	}
	if cfg.WindowDays == 0 {
		cfg.WindowDays = 90
	}
	if cfg.RefillThresholdDays == 0 {
		cfg.RefillThresholdDays = 30
	}
	if cfg.RefillThresholdDays > cfg.WindowDays {
		return cfg, fmt.Errorf("REFILL_THRESHOLD_DAYS (%d) must not exceed WINDOW_DAYS (%d)",
			cfg.RefillThresholdDays, cfg.WindowDays)
	}

	return cfg, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parsePositiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
