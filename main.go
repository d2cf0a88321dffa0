package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/t3rmed/tradingview-mcp/internal/cli"
	"github.com/t3rmed/tradingview-mcp/internal/config"
	"github.com/t3rmed/tradingview-mcp/internal/logging"
)

func main() {
	// Optional .env for local development; a missing file is fine.
	_ = godotenv.Load()

	configDir := peekConfigDir()
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.LogConfig{
		Level:      cfg.Logging.Level,
		Debug:      cfg.Logging.Debug,
		DebugFile:  cfg.Logging.DebugFile,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	})

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// peekConfigDir reads the --config flag ahead of cobra so the config file
// is loaded before the logger and commands are built.
func peekConfigDir() string {
	fs := pflag.NewFlagSet("pre", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	configDir := fs.String("config", "", "")
	fs.Bool("debug", false, "")
	_ = fs.Parse(os.Args[1:])
	return *configDir
}
