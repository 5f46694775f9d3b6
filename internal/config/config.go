// Package config handles configuration loading for stockscore.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STOCKSCORE_API_PORT.
const EnvPrefix = "STOCKSCORE"

// Config represents the complete application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	FX       FXConfig       `mapstructure:"fx"       yaml:"fx"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// AnalysisConfig holds batch analysis settings.
type AnalysisConfig struct {
	Workers       int `mapstructure:"workers"         yaml:"workers"`         // concurrent analyses in a batch
	MaxBatchItems int `mapstructure:"max_batch_items" yaml:"max_batch_items"` // upper bound per batch request
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns host:port for the listener.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// FXConfig holds currency converter settings.
type FXConfig struct {
	BaseCurrency      string             `mapstructure:"base_currency"       yaml:"base_currency"`
	Endpoint          string             `mapstructure:"endpoint"            yaml:"endpoint"` // {from} is replaced by the source currency
	APIKey            string             `mapstructure:"api_key"             yaml:"api_key"`
	CacheTTL          int                `mapstructure:"cache_ttl"           yaml:"cache_ttl"` // seconds
	TimeoutSec        int                `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
	RequestsPerMinute int                `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	FallbackRates     map[string]float64 `mapstructure:"fallback_rates"      yaml:"fallback_rates"` // "USD_CAD": 1.35
}

// CacheDuration returns CacheTTL as a time.Duration.
func (f FXConfig) CacheDuration() time.Duration {
	return time.Duration(f.CacheTTL) * time.Second
}

// Timeout returns TimeoutSec as a time.Duration.
func (f FXConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
	Output string `mapstructure:"output" yaml:"output"` // "stdout", "stderr" or a file path
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stockscore/config.yaml (home directory)
//  3. /etc/stockscore/config.yaml (system)
//
// Environment variables override config file values.
// Format: STOCKSCORE_<SECTION>_<KEY>, e.g., STOCKSCORE_API_PORT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockscore"))
	v.AddConfigPath("/etc/stockscore")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that defaults cannot guarantee.
func (c *Config) Validate() error {
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1, got %d", c.Analysis.Workers)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.FX.CacheTTL < 0 {
		return fmt.Errorf("fx.cache_ttl must not be negative, got %d", c.FX.CacheTTL)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.max_batch_items", 100)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// FX defaults
	v.SetDefault("fx.base_currency", "USD")
	v.SetDefault("fx.endpoint", "https://api.exchangerate-api.com/v4/latest/{from}")
	v.SetDefault("fx.cache_ttl", 3600) // 1 hour
	v.SetDefault("fx.timeout_sec", 10)
	v.SetDefault("fx.requests_per_minute", 30)
	v.SetDefault("fx.fallback_rates", map[string]float64{
		"USD_CAD": 1.35,
		"CAD_USD": 0.74,
	})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}

// normalize canonicalizes values viper may have altered. Map keys come
// back lower-cased from YAML and must be upper-case currency pairs.
func normalize(cfg *Config) {
	cfg.FX.BaseCurrency = strings.ToUpper(cfg.FX.BaseCurrency)
	if len(cfg.FX.FallbackRates) > 0 {
		rates := make(map[string]float64, len(cfg.FX.FallbackRates))
		for k, r := range cfg.FX.FallbackRates {
			rates[strings.ToUpper(k)] = r
		}
		cfg.FX.FallbackRates = rates
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvPrefix + "_FX_API_KEY"); key != "" {
		cfg.FX.APIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
