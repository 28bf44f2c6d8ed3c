package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, "sqlite://pixelwar.db", cfg.DatabaseURL)
	assert.Equal(t, 100, cfg.TickIntervalMS)
	assert.Equal(t, 10000, cfg.MessageQueueSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PIXELWAR_API_ADDR", ":9090")
	t.Setenv("PIXELWAR_DATABASE_URL", "memory://")
	t.Setenv("PIXELWAR_TICK_INTERVAL_MS", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.APIAddr)
	assert.Equal(t, "memory://", cfg.DatabaseURL)
	assert.Equal(t, 50, cfg.TickIntervalMS)
	// untouched defaults survive
	assert.Equal(t, 8081, cfg.WSPort)
}

func TestLoadRejectsBadTickInterval(t *testing.T) {
	t.Setenv("PIXELWAR_TICK_INTERVAL_MS", "-5")
	_, err := Load()
	assert.Error(t, err)
}
