package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "dpc.db", cfg.Store.SQLitePath)
	assert.Equal(t, "https://mapper.dpcfrontier.com", cfg.Frontier.BaseURL)
	assert.Equal(t, 1200, cfg.Frontier.DelayMS)
	assert.Equal(t, "https://www.dpcalliance.org", cfg.Alliance.BaseURL)
	assert.Equal(t, 3000, cfg.Alliance.DelayMS)
	assert.Equal(t, 1.0, cfg.Geocode.RatePerSecond)
	assert.Equal(t, "https://r.jina.ai", cfg.Render.BaseURL)
	assert.Equal(t, "https://s.jina.ai", cfg.Render.SearchBaseURL)
	assert.Equal(t, 50, cfg.Pipeline.CheckpointEvery)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DPC_STORE_DRIVER", "postgres")
	t.Setenv("DPC_STORE_DATABASE_URL", "postgres://localhost/dpc")
	t.Setenv("DPC_FRONTIER_DELAY_MS", "100")
	t.Setenv("DPC_RENDER_KEY", "jina_test_key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/dpc", cfg.Store.DatabaseURL)
	assert.Equal(t, 100, cfg.Frontier.DelayMS)
	assert.Equal(t, "jina_test_key", cfg.Render.Key)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "chatty", Format: "console"})
	assert.Error(t, err)
}
