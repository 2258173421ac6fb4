package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOPIFY_API_VERSION", "")
	t.Setenv("RECONNECT_ATTEMPTS", "")
	t.Setenv("RECONNECT_DELAY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2025-07", cfg.ShopifyAPIVersion)
	assert.Equal(t, 5, cfg.ReconnectAttempts)
	assert.Equal(t, 1500*time.Millisecond, cfg.ReconnectDelay)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RECONNECT_ATTEMPTS", "9")
	t.Setenv("RECONNECT_DELAY", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, 9, cfg.ReconnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("RECONNECT_ATTEMPTS", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ReconnectAttempts)
}
