// Package tools exposes the screener over the Model Context Protocol.
package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/t3rmed/tradingview-mcp/internal/screener"
)

const serverName = "TradingView Screener"

// fallbackExchanges is served when the symbol directory cannot be listed.
const fallbackExchanges = "Common exchanges: KUCOIN, BINANCE, BYBIT, OKX, COINBASE, GATEIO, HUOBI, BITFINEX, KRAKEN, BITSTAMP, BIST, NASDAQ"

// Server wires the scan service into an MCP server and serves it over
// stdio or streamable HTTP.
type Server struct {
	mcp    *server.MCPServer
	svc    *screener.Service
	logger zerolog.Logger
}

// NewServer builds the MCP server with every tool and resource registered.
func NewServer(svc *screener.Service, version string, logger zerolog.Logger) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
		svc:    svc,
		logger: logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio blocks serving JSON-RPC on stdin/stdout. All logging must
// stay on stderr while this runs.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("Serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

// ServeHTTP blocks serving the streamable HTTP transport on addr.
func (s *Server) ServeHTTP(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("Serving MCP over streamable HTTP")
	return server.NewStreamableHTTPServer(s.mcp).Start(addr)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("top_gainers",
		mcp.WithDescription("Top crypto gainers on an exchange, sorted by percent change descending."),
		mcp.WithString("exchange", mcp.Description("Exchange name like KUCOIN, BINANCE, BYBIT"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("timeframe", mcp.Description("One of 5m, 15m, 1h, 4h, 1D, 1W, 1M"), mcp.DefaultString("15m")),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return (max 50)"), mcp.DefaultNumber(25)),
	), s.handleTopGainers())

	s.mcp.AddTool(mcp.NewTool("top_losers",
		mcp.WithDescription("Top crypto losers on an exchange, sorted by percent change ascending."),
		mcp.WithString("exchange", mcp.Description("Exchange name like KUCOIN, BINANCE, BYBIT"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("timeframe", mcp.Description("One of 5m, 15m, 1h, 4h, 1D, 1W, 1M"), mcp.DefaultString("15m")),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return (max 50)"), mcp.DefaultNumber(25)),
	), s.handleTopLosers())

	s.mcp.AddTool(mcp.NewTool("bollinger_scan",
		mcp.WithDescription("Find coins whose Bollinger Band width is below a threshold (squeeze candidates)."),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("timeframe", mcp.Description("Interval for the band read"), mcp.DefaultString("4h")),
		mcp.WithNumber("bbw_threshold", mcp.Description("Maximum band width (upper-lower)/middle"), mcp.DefaultNumber(0.04)),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return (max 100)"), mcp.DefaultNumber(50)),
	), s.handleBollingerScan())

	s.mcp.AddTool(mcp.NewTool("rating_filter",
		mcp.WithDescription("Coins whose Bollinger rating matches exactly. Rating runs -3 (strong sell) to 3 (strong buy)."),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("timeframe", mcp.Description("Interval"), mcp.DefaultString("5m")),
		mcp.WithNumber("rating", mcp.Description("Exact rating to match, -3..3"), mcp.DefaultNumber(2)),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return (max 50)"), mcp.DefaultNumber(25)),
	), s.handleRatingFilter())

	s.mcp.AddTool(mcp.NewTool("coin_analysis",
		mcp.WithDescription("Full technical report for one coin: price, Bollinger read, oscillators, sentiment."),
		mcp.WithString("symbol", mcp.Description("Coin symbol, e.g. BTCUSDT or KUCOIN:BTCUSDT"), mcp.Required()),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("timeframe", mcp.Description("Interval"), mcp.DefaultString("15m")),
	), s.handleCoinAnalysis())

	s.mcp.AddTool(mcp.NewTool("consecutive_candles_scan",
		mcp.WithDescription("Scan for coins showing a consecutive bullish or bearish candle pattern."),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("timeframe", mcp.Description("Interval"), mcp.DefaultString("15m")),
		mcp.WithString("pattern_type", mcp.Description("bullish or bearish"), mcp.DefaultString("bullish")),
		mcp.WithNumber("candle_count", mcp.Description("Consecutive candles to check (2-5)"), mcp.DefaultNumber(3)),
		mcp.WithNumber("min_growth", mcp.Description("Minimum percent change per candle"), mcp.DefaultNumber(2.0)),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return (max 50)"), mcp.DefaultNumber(20)),
	), s.handleConsecutiveCandles())

	s.mcp.AddTool(mcp.NewTool("advanced_candle_pattern",
		mcp.WithDescription("Score candle patterns using multi-timeframe data where available."),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("base_timeframe", mcp.Description("Base interval for the pattern read"), mcp.DefaultString("15m")),
		mcp.WithNumber("pattern_length", mcp.Description("Consecutive periods to analyze (2-4)"), mcp.DefaultNumber(3)),
		mcp.WithNumber("min_size_increase", mcp.Description("Minimum percent increase in candle size"), mcp.DefaultNumber(10.0)),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return (max 30)"), mcp.DefaultNumber(15)),
	), s.handleAdvancedPattern())

	s.mcp.AddTool(mcp.NewTool("volume_breakout_scanner",
		mcp.WithDescription("Detect coins where a price move is backed by a volume multiple of its average."),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("timeframe", mcp.Description("Interval"), mcp.DefaultString("15m")),
		mcp.WithNumber("volume_multiplier", mcp.Description("Required volume multiple over average (1.5-10)"), mcp.DefaultNumber(2.0)),
		mcp.WithNumber("price_change_min", mcp.Description("Minimum absolute percent change (1-20)"), mcp.DefaultNumber(3.0)),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return (max 50)"), mcp.DefaultNumber(25)),
	), s.handleVolumeBreakouts())

	s.mcp.AddTool(mcp.NewTool("volume_confirmation_analysis",
		mcp.WithDescription("Detailed volume confirmation read for one coin (forced onto its USDT pair)."),
		mcp.WithString("symbol", mcp.Description("Coin symbol, e.g. BTC or BTCUSDT"), mcp.Required()),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithString("timeframe", mcp.Description("Interval"), mcp.DefaultString("15m")),
	), s.handleVolumeConfirmation())

	s.mcp.AddTool(mcp.NewTool("smart_volume_scanner",
		mcp.WithDescription("Volume breakout scan combined with an RSI window filter and trade recommendations."),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithNumber("min_volume_ratio", mcp.Description("Minimum volume multiple (1.2-10)"), mcp.DefaultNumber(2.0)),
		mcp.WithNumber("min_price_change", mcp.Description("Minimum absolute percent change (0.5-20)"), mcp.DefaultNumber(2.0)),
		mcp.WithString("rsi_range", mcp.Description("oversold (<30), overbought (>70), neutral (30-70) or any"), mcp.DefaultString("any")),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return (max 30)"), mcp.DefaultNumber(20)),
	), s.handleSmartVolume())

	s.mcp.AddTool(mcp.NewTool("multi_changes",
		mcp.WithDescription("Percent change per timeframe for exchange symbols in one tabular query."),
		mcp.WithString("exchange", mcp.Description("Exchange name"), mcp.DefaultString("KUCOIN")),
		mcp.WithArray("timeframes", mcp.Description("Intervals to report, defaults to 15m, 1h, 4h, 1D")),
		mcp.WithString("base_timeframe", mcp.Description("Interval for the attached indicator context"), mcp.DefaultString("4h")),
		mcp.WithNumber("limit", mcp.Description("Number of rows to return"), mcp.DefaultNumber(50)),
	), s.handleMultiChanges())
}

func (s *Server) registerResources() {
	resource := mcp.NewResource(
		"exchanges://list",
		"Supported exchanges",
		mcp.WithResourceDescription("Exchange codes with a bundled symbol list"),
		mcp.WithMIMEType("text/plain"),
	)
	s.mcp.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text := fallbackExchanges
		if exchanges, err := s.svc.Exchanges(); err == nil && len(exchanges) > 0 {
			text = "Supported exchanges: " + strings.Join(exchanges, ", ")
		} else if err != nil {
			s.logger.Warn().Err(err).Msg("Exchange listing failed, serving fallback")
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "exchanges://list",
				MIMEType: "text/plain",
				Text:     text,
			},
		}, nil
	})
}
