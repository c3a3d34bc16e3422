package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for modelfilter.
type Config struct {
	Source       string           `mapstructure:"source"`
	SnapshotPath string           `mapstructure:"snapshot_path"`
	CacheDir     string           `mapstructure:"cache_dir"`
	CacheTTL     string           `mapstructure:"cache_ttl"`
	NoCache      bool             `mapstructure:"no_cache"`
	RateLimit    float64          `mapstructure:"rate_limit"`
	PolicyFile   string           `mapstructure:"policy_file"`
	LogLevel     string           `mapstructure:"log_level"`
	OpenRouter   OpenRouterConfig `mapstructure:"openrouter"`
}

// OpenRouterConfig holds OpenRouter API settings.
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("source", "openrouter")
	v.SetDefault("snapshot_path", "")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("no_cache", false)
	v.SetDefault("rate_limit", 2.0)
	v.SetDefault("policy_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.timeout", "30s")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/modelfilter")
	}

	// Environment variables
	v.SetEnvPrefix("MODELFILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY", "MODELFILTER_OPENROUTER_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := c.CacheTTLDuration(); err != nil {
		return fmt.Errorf("cache_ttl: %w", err)
	}
	if _, err := c.OpenRouter.TimeoutDuration(); err != nil {
		return fmt.Errorf("openrouter.timeout: %w", err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit: must not be negative, got %v", c.RateLimit)
	}
	return nil
}

// CacheTTLDuration parses cache_ttl.
func (c *Config) CacheTTLDuration() (time.Duration, error) {
	return time.ParseDuration(c.CacheTTL)
}

// TimeoutDuration parses the request timeout.
func (o OpenRouterConfig) TimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(o.Timeout)
}

// ParseLogLevel maps a log_level value to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "modelfilter-cache")
	}
	return filepath.Join(dir, "modelfilter")
}
