package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# TradingView MCP Server Configuration

[server]
# Transport: "stdio" or "streamable-http"
transport = "stdio"
# Host and port for the streamable-http transport
host = "127.0.0.1"
port = 8000

[screener]
# Directory holding {EXCHANGE}.txt symbol lists
coinlist_dir = "coinlist"
# Defaults applied when a tool call omits or passes invalid values
default_exchange = "kucoin"
default_timeframe = "15m"
# Timeout for a single provider API call
request_timeout_seconds = 30

[logging]
# Log level: debug, info, warn, error
level = "info"
# Debug mode adds a rotated debug log file (also enabled by DEBUG_MCP)
debug = false
debug_file = "tradingview_mcp_debug.log"
max_size_mb = 50
max_backups = 3
max_age_days = 14
`

// createTemplateConfig writes a commented default config for the first run.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
