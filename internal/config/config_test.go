package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"_FX_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	// Analysis defaults
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 100, cfg.Analysis.MaxBatchItems)

	// API defaults
	assert.Equal(t, "0.0.0.0", cfg.API.Host)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.API.Addr())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.CORSOrigins)

	// FX defaults
	assert.Equal(t, "USD", cfg.FX.BaseCurrency)
	assert.Equal(t, time.Hour, cfg.FX.CacheDuration())
	assert.Equal(t, 10*time.Second, cfg.FX.Timeout())
	assert.Equal(t, 30, cfg.FX.RequestsPerMinute)
	assert.Equal(t, 1.35, cfg.FX.FallbackRates["USD_CAD"])
	assert.Equal(t, 0.74, cfg.FX.FallbackRates["CAD_USD"])

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

// ── LoadFromFile ──

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv(EnvPrefix+"_FX_API_KEY", "")

	path := writeConfig(t, `
analysis:
  workers: 8
api:
  port: 9090
  cors_origins: ["https://example.org"]
fx:
  base_currency: "cad"
  cache_ttl: 600
  fallback_rates:
    usd_eur: 0.92
logging:
  level: "DEBUG"
  format: "json"
  output: "stdout"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, []string{"https://example.org"}, cfg.API.CORSOrigins)
	assert.Equal(t, "CAD", cfg.FX.BaseCurrency)
	assert.Equal(t, 10*time.Minute, cfg.FX.CacheDuration())
	assert.Equal(t, 0.92, cfg.FX.FallbackRates["USD_EUR"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero workers", "analysis:\n  workers: 0\n"},
		{"bad port", "api:\n  port: 70000\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"negative ttl", "fx:\n  cache_ttl: -1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tc.content))
			assert.Error(t, err, "expected validation error")
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvPrefix+"_API_PORT", "7070")

	cfg, err := LoadFromFile(writeConfig(t, "api:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.API.Port, "port should come from env")
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"_FX_API_KEY", "fx-key-1234567890")

	cfg := &Config{}
	overrideFromEnv(cfg)

	assert.Equal(t, "fx-key-1234567890", cfg.FX.APIKey)
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	t.Setenv(EnvPrefix+"_FX_API_KEY", "")

	cfg := &Config{FX: FXConfig{APIKey: "from-config"}}
	overrideFromEnv(cfg)

	assert.Equal(t, "from-config", cfg.FX.APIKey, "unset env must not clear the configured key")
}

// ── maskKey ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
		{"123456789", "123...789"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, maskKey(tc.input), "maskKey(%q)", tc.input)
	}
}

// ── CheckAPIKeys ──

func TestCheckAPIKeys(t *testing.T) {
	t.Setenv(EnvPrefix+"_FX_API_KEY", "")

	statuses := CheckAPIKeys(&Config{})
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].IsSet)
	assert.Equal(t, KeySourceNone, statuses[0].Source)

	statuses = CheckAPIKeys(&Config{FX: FXConfig{APIKey: "config-key-123456"}})
	assert.Equal(t, KeySourceConfig, statuses[0].Source)
	assert.Equal(t, "con...456", statuses[0].Masked)

	t.Setenv(EnvPrefix+"_FX_API_KEY", "env-key-123456789")
	statuses = CheckAPIKeys(&Config{FX: FXConfig{APIKey: "env-key-123456789"}})
	assert.Equal(t, KeySourceEnv, statuses[0].Source)
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, homeDir())
}
