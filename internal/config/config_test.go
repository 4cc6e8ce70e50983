package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, BackendBrowser, cfg.Backend)
	assert.Equal(t, 2, cfg.PoolSize)
	assert.Equal(t, 3, cfg.RenderAttempts)
	assert.Equal(t, 5*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, 10*time.Second, cfg.RenderTimeout)
	assert.EqualValues(t, 64<<20, cfg.CacheCapacityBytes)
	assert.Zero(t, cfg.CacheMaxAge)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RENDER_BACKEND", "raster")
	t.Setenv("POOL_SIZE", "4")
	t.Setenv("RENDER_TIMEOUT", "2s")
	t.Setenv("CACHE_MAX_AGE", "12h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendRaster, cfg.Backend)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, 2*time.Second, cfg.RenderTimeout)
	assert.Equal(t, 12*time.Hour, cfg.CacheMaxAge)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("RENDER_BACKEND", "etch-a-sketch")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("POOL_SIZE", "many")
	t.Setenv("ACQUIRE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.AcquireTimeout)
}
