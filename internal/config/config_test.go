package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SUPPORT_BASE_URL", "")
	t.Setenv("ALLOWED_ORIGIN", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_DEVELOPMENT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "*", cfg.Server.AllowedOrigin)
	assert.Equal(t, DefaultSupportBaseURL, cfg.Support.BaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
}

func TestLoadServerAddrForms(t *testing.T) {
	cases := map[string]string{
		"9000":           ":9000",
		":9001":          ":9001",
		"127.0.0.1:9002": "127.0.0.1:9002",
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("PORT", raw)
			cfg, err := loadServerConfig()
			require.NoError(t, err)
			assert.Equal(t, want, cfg.Addr)
		})
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("PORT", "80 80")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"localhost:8000", "ftp://example.com", "http://"} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("PORT", "")
			t.Setenv("SUPPORT_BASE_URL", raw)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadLogConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := loadLogConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.Development)

	t.Setenv("LOG_DEVELOPMENT", "maybe")
	_, err = loadLogConfig()
	require.Error(t, err)
}
