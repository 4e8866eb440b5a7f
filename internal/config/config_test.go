package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.False(t, cfg.PartialSuccess)
	assert.False(t, cfg.Coinbase.FailFast)

	assert.Equal(t, "https://www.bullionvault.com/view_market_xml.do", cfg.BullionVault.URL)
	assert.Equal(t, 30, cfg.BullionVault.Timeout)
	assert.Equal(t, 3, cfg.BullionVault.Retries)
	assert.Equal(t, 1, cfg.BullionVault.Interval)

	assert.Equal(t, "https://api.coinbase.com/v2/prices", cfg.Coinbase.URL)
	assert.Equal(t, 3, cfg.Coinbase.Retries)
}

func TestApplyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
environment: staging
log_level: debug
listen: ":9999"
partial_success: true
bullionvault:
  url: "http://bv.local/market.xml"
  retries: 5
coinbase:
  url: "http://cb.local/prices"
  fail_fast: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg := DefaultConfig()
	applyFile(cfg, path)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9999", cfg.Listen)
	assert.True(t, cfg.PartialSuccess)
	assert.Equal(t, "http://bv.local/market.xml", cfg.BullionVault.URL)
	assert.Equal(t, 5, cfg.BullionVault.Retries)
	assert.Equal(t, "http://cb.local/prices", cfg.Coinbase.URL)
	assert.True(t, cfg.Coinbase.FailFast)

	// Unset keys keep their defaults.
	assert.Equal(t, 30, cfg.BullionVault.Timeout)
}

func TestApplyFileMissingOrInvalid(t *testing.T) {
	cfg := DefaultConfig()
	applyFile(cfg, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))
	applyFile(cfg, path)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_VERSION", "1.4.2")
	t.Setenv("BULLIONVAULT_URL", "http://bv.test")
	t.Setenv("BULLIONVAULT_TIMEOUT", "10")
	t.Setenv("BULLIONVAULT_RETRIES", "7")
	t.Setenv("COINBASE_URL", "http://cb.test")
	t.Setenv("COINBASE_FAIL_FAST", "true")
	t.Setenv("ASSETMON_PARTIAL_SUCCESS", "1")

	cfg := DefaultConfig()
	applyEnv(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "1.4.2", cfg.AppVersion)
	assert.Equal(t, "http://bv.test", cfg.BullionVault.URL)
	assert.Equal(t, 10, cfg.BullionVault.Timeout)
	assert.Equal(t, 7, cfg.BullionVault.Retries)
	assert.Equal(t, "http://cb.test", cfg.Coinbase.URL)
	assert.True(t, cfg.Coinbase.FailFast)
	assert.True(t, cfg.PartialSuccess)
}

func TestApplyEnvPort(t *testing.T) {
	t.Setenv("PORT", "9100")

	cfg := DefaultConfig()
	applyEnv(cfg)
	assert.Equal(t, ":9100", cfg.Listen)
}

func TestApplyEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("BULLIONVAULT_RETRIES", "many")

	cfg := DefaultConfig()
	applyEnv(cfg)
	assert.Equal(t, 3, cfg.BullionVault.Retries)
}

func TestNormalizeBasePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"assetmon", "/assetmon"},
		{"/assetmon", "/assetmon"},
		{"/assetmon/", "/assetmon"},
		{"  /assetmon  ", "/assetmon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeBasePath(tt.in), tt.in)
	}
}
