package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DEFAULT_BALANCE", "")
	t.Setenv("SURGE_WINDOW", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("STRICT_FARES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, int64(50000), cfg.DefaultBalance)
	assert.Equal(t, "default", cfg.DefaultAccountID)
	assert.Equal(t, time.Duration(0), cfg.SurgeWindow)
	assert.False(t, cfg.StrictFares)
	assert.False(t, cfg.ChatEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DEFAULT_BALANCE", "1000")
	t.Setenv("SURGE_WINDOW", "15m")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, http://example.com")
	t.Setenv("GEMINI_API_KEY", "abc")
	t.Setenv("STRICT_FARES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(1000), cfg.DefaultBalance)
	assert.Equal(t, 15*time.Minute, cfg.SurgeWindow)
	assert.Equal(t, []string{"http://localhost:3000", "http://example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.StrictFares)
	assert.True(t, cfg.ChatEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown backend", key: "STORE_BACKEND", value: "sqlite"},
		{name: "crdb without dsn", key: "STORE_BACKEND", value: "crdb"},
		{name: "bad balance", key: "DEFAULT_BALANCE", value: "lots"},
		{name: "negative balance", key: "DEFAULT_BALANCE", value: "-1"},
		{name: "bad window", key: "SURGE_WINDOW", value: "soon"},
		{name: "bad strict fares", key: "STRICT_FARES", value: "sometimes"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CRDB_DSN", "")
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestChatEnabled_Placeholder(t *testing.T) {
	cfg := &Config{GeminiAPIKey: "Your_API_Key_Here"}
	assert.False(t, cfg.ChatEnabled())
}
