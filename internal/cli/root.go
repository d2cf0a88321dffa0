// Package cli provides the command-line interface for the screener server.
package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/t3rmed/tradingview-mcp/internal/coinlist"
	"github.com/t3rmed/tradingview-mcp/internal/config"
	"github.com/t3rmed/tradingview-mcp/internal/logging"
	"github.com/t3rmed/tradingview-mcp/internal/screener"
	"github.com/t3rmed/tradingview-mcp/internal/tools"
	"github.com/t3rmed/tradingview-mcp/internal/tradingview"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2025-08-29"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewRootCmd creates the root command. The single optional positional
// argument selects the transport, overriding the configured one.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "tradingview-mcp [stdio|streamable-http]",
		Short: "TradingView crypto screener exposed as an MCP tool server",
		Long: `tradingview-mcp serves crypto screener tools over the Model Context Protocol.

It fetches technical-indicator snapshots from the TradingView scanner API and
exposes filtered, sorted market views as MCP tools: movers, Bollinger squeeze
candidates, candle patterns, volume breakouts and per-coin deep dives.

With no argument the transport from the config file is used. Logging always
goes to stderr so the stdio transport keeps stdout clean for JSON-RPC.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Config.Logging.Debug = true
				app.Logger = logging.NewLogger(logging.LogConfig{
					Level:      "debug",
					Debug:      true,
					DebugFile:  app.Config.Logging.DebugFile,
					MaxSize:    app.Config.Logging.MaxSize,
					MaxBackups: app.Config.Logging.MaxBackups,
					MaxAge:     app.Config.Logging.MaxAge,
				})
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				app.Config.Server.Transport = args[0]
			}
			if host, _ := cmd.Flags().GetString("host"); host != "" {
				app.Config.Server.Host = host
			}
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				app.Config.Server.Port = port
			}
			if err := app.Config.Validate(); err != nil {
				return err
			}
			return app.serve()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/tradingview-mcp)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.Flags().String("host", "", "bind host for the streamable-http transport")
	rootCmd.Flags().Int("port", 0, "bind port for the streamable-http transport")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// serve wires the provider, symbol loader and scan service together and
// blocks on the selected transport.
func (app *App) serve() error {
	timeout := time.Duration(app.Config.Screener.RequestTimeout) * time.Second
	client := tradingview.NewClient(timeout, app.Logger)
	loader := coinlist.NewLoader(app.Config.Screener.CoinlistDir, app.Logger)
	svc := screener.NewService(client, client, loader, app.Logger)
	srv := tools.NewServer(svc, Version, app.Logger)

	switch app.Config.Server.Transport {
	case "streamable-http":
		addr := fmt.Sprintf("%s:%d", app.Config.Server.Host, app.Config.Server.Port)
		if app.Config.Server.Host != "127.0.0.1" && app.Config.Server.Host != "localhost" {
			app.Logger.Warn().Str("host", app.Config.Server.Host).Msg("Binding to a non-loopback host exposes the server to the network")
		}
		return srv.ServeHTTP(addr)
	default:
		return srv.ServeStdio()
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tradingview-mcp %s (built %s)\n", Version, BuildDate)
		},
	}
}
