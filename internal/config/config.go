// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backends.
const (
	BackendBrowser = "browser"
	BackendRaster  = "raster"
)

// Config carries every tunable of the service. The concurrency and timeout
// knobs are operational tuning, not architecture; defaults suit a small
// personal deployment.
type Config struct {
	HTTPPort string
	Backend  string

	PoolSize       int
	RenderAttempts int
	AcquireTimeout time.Duration
	RenderTimeout  time.Duration
	SpawnTimeout   time.Duration

	CacheCapacityBytes int64
	CacheMaxEntries    int
	CacheMaxAge        time.Duration
	SweepInterval      time.Duration

	ViewportWidth  int
	ViewportHeight int

	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A missing .env file is
// fine; the environment always wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "7070"),
		Backend:            getEnv("RENDER_BACKEND", BackendBrowser),
		PoolSize:           getEnvInt("POOL_SIZE", 2),
		RenderAttempts:     getEnvInt("RENDER_ATTEMPTS", 3),
		AcquireTimeout:     getEnvDuration("ACQUIRE_TIMEOUT", 5*time.Second),
		RenderTimeout:      getEnvDuration("RENDER_TIMEOUT", 10*time.Second),
		SpawnTimeout:       getEnvDuration("SPAWN_TIMEOUT", 30*time.Second),
		CacheCapacityBytes: int64(getEnvInt("CACHE_CAPACITY_BYTES", 64<<20)),
		CacheMaxEntries:    getEnvInt("CACHE_MAX_ENTRIES", 1024),
		CacheMaxAge:        getEnvDuration("CACHE_MAX_AGE", 0),
		SweepInterval:      getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),
		ViewportWidth:      getEnvInt("VIEWPORT_WIDTH", 1600),
		ViewportHeight:     getEnvInt("VIEWPORT_HEIGHT", 1600),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
	}

	if cfg.Backend != BackendBrowser && cfg.Backend != BackendRaster {
		return nil, fmt.Errorf("unknown RENDER_BACKEND %q", cfg.Backend)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
