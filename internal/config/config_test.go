package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.ElementsMatch(t, []string{"USGS", "NASA_EONET", "GDACS", "RELIEFWEB", "NWS"}, cfg.Sources.Enabled)
	assert.Equal(t, "5m", cfg.Cache.TTL)
	assert.Equal(t, "30m", cfg.Cache.StaleTTL)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, "60s", cfg.Breaker.OpenTimeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "1s", cfg.Retry.BaseDelay)
	assert.Equal(t, "10s", cfg.HTTP.Timeout)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GEOSAFE_SERVER_PORT", "9090")
	t.Setenv("GEOSAFE_BREAKER_FAILURE_THRESHOLD", "8")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Breaker.FailureThreshold)
}

func TestNormalizeConfigRejectsBadPort(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 70000
	err := normalizeConfig(cfg)
	assert.Error(t, err)
}

func TestNormalizeConfigFillsSourceDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 3000
	require.NoError(t, normalizeConfig(cfg))
	assert.Len(t, cfg.Sources.Enabled, 5)
	assert.Equal(t, "data/safezones.json", cfg.API.SafeZonesFile)
}
