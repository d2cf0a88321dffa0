// Package config provides configuration management for the screener server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	apperrors "github.com/t3rmed/tradingview-mcp/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Screener ScreenerConfig `mapstructure:"screener"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds transport configuration.
type ServerConfig struct {
	Transport string `mapstructure:"transport"` // "stdio", "streamable-http"
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
}

// ScreenerConfig holds scan-related configuration.
type ScreenerConfig struct {
	CoinlistDir      string `mapstructure:"coinlist_dir"`
	DefaultExchange  string `mapstructure:"default_exchange"`
	DefaultTimeframe string `mapstructure:"default_timeframe"`
	RequestTimeout   int    `mapstructure:"request_timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Debug      bool   `mapstructure:"debug"`
	DebugFile  string `mapstructure:"debug_file"`
	MaxSize    int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age_days"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/tradingview-mcp"
	}
	return filepath.Join(home, ".config", "tradingview-mcp")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// A missing config file is not an error: defaults apply and a template
// is written for the next run.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// First run: write a template so the defaults are discoverable.
		if werr := createTemplateConfig(configDir); werr != nil {
			// Non-fatal, defaults still apply.
			_ = werr
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("screener.coinlist_dir", "coinlist")
	v.SetDefault("screener.default_exchange", "kucoin")
	v.SetDefault("screener.default_timeframe", "15m")
	v.SetDefault("screener.request_timeout_seconds", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.debug", false)
	v.SetDefault("logging.debug_file", "tradingview_mcp_debug.log")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if os.Getenv("DEBUG_MCP") != "" {
		cfg.Logging.Debug = true
	}
	if v := os.Getenv("COINLIST_DIR"); v != "" {
		cfg.Screener.CoinlistDir = v
	}
}

// Validate validates the configuration. Failures wrap
// errors.ErrConfigInvalid so callers can match on the class.
func (c *Config) Validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "streamable-http" {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "transport %q (must be 'stdio' or 'streamable-http')", c.Server.Transport)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "port %d", c.Server.Port)
	}
	if c.Screener.RequestTimeout <= 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "request_timeout_seconds must be positive")
	}
	return nil
}
