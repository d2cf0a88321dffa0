package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/t3rmed/tradingview-mcp/internal/logging"
)

// logCall records a tool invocation. Logging must never take a handler
// down, and must never touch stdout while the stdio transport runs.
func (s *Server) logCall(tool string) {
	logging.SafeLog(logging.WithTool(s.logger, tool), zerolog.DebugLevel, "Tool invoked")
}

// handleTopGainers implements the top_gainers tool.
func (s *Server) handleTopGainers() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("top_gainers")
		exchange := request.GetString("exchange", "KUCOIN")
		timeframe := request.GetString("timeframe", "15m")
		limit := request.GetInt("limit", 25)

		rows, err := s.svc.TopGainers(ctx, exchange, timeframe, limit)
		if err != nil {
			s.logger.Error().Err(err).Str("exchange", exchange).Msg("Top gainers scan failed")
			return errorResult(fmt.Sprintf("Scan error: %v", err)), nil
		}
		return jsonResult(rows)
	}
}

// handleTopLosers implements the top_losers tool.
func (s *Server) handleTopLosers() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("top_losers")
		exchange := request.GetString("exchange", "KUCOIN")
		timeframe := request.GetString("timeframe", "15m")
		limit := request.GetInt("limit", 25)

		rows, err := s.svc.TopLosers(ctx, exchange, timeframe, limit)
		if err != nil {
			s.logger.Error().Err(err).Str("exchange", exchange).Msg("Top losers scan failed")
			return errorResult(fmt.Sprintf("Scan error: %v", err)), nil
		}
		return jsonResult(rows)
	}
}

// handleBollingerScan implements the bollinger_scan tool.
func (s *Server) handleBollingerScan() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("bollinger_scan")
		exchange := request.GetString("exchange", "KUCOIN")
		timeframe := request.GetString("timeframe", "4h")
		threshold := request.GetFloat("bbw_threshold", 0.04)
		limit := request.GetInt("limit", 50)

		rows, err := s.svc.BollingerScan(ctx, exchange, timeframe, threshold, limit)
		if err != nil {
			s.logger.Error().Err(err).Str("exchange", exchange).Msg("Bollinger scan failed")
			return errorResult(fmt.Sprintf("Scan error: %v", err)), nil
		}
		return jsonResult(rows)
	}
}

// handleRatingFilter implements the rating_filter tool.
func (s *Server) handleRatingFilter() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("rating_filter")
		exchange := request.GetString("exchange", "KUCOIN")
		timeframe := request.GetString("timeframe", "5m")
		rating := request.GetInt("rating", 2)
		limit := request.GetInt("limit", 25)

		rows, err := s.svc.RatingFilter(ctx, exchange, timeframe, rating, limit)
		if err != nil {
			s.logger.Error().Err(err).Str("exchange", exchange).Msg("Rating filter failed")
			return errorResult(fmt.Sprintf("Scan error: %v", err)), nil
		}
		return jsonResult(rows)
	}
}

// handleCoinAnalysis implements the coin_analysis tool. Failures are
// reported inside the JSON payload, never as a tool error.
func (s *Server) handleCoinAnalysis() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("coin_analysis")
		symbol, err := request.RequireString("symbol")
		if err != nil || symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		exchange := request.GetString("exchange", "KUCOIN")
		timeframe := request.GetString("timeframe", "15m")

		report := s.svc.CoinAnalysis(ctx, symbol, exchange, timeframe)
		if report.Error != "" {
			s.logger.Warn().Str("symbol", symbol).Str("reason", report.Error).Msg("Coin analysis returned error payload")
		}
		return jsonResult(report)
	}
}

// handleConsecutiveCandles implements the consecutive_candles_scan tool.
func (s *Server) handleConsecutiveCandles() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("consecutive_candles_scan")
		exchange := request.GetString("exchange", "KUCOIN")
		timeframe := request.GetString("timeframe", "15m")
		patternType := request.GetString("pattern_type", "bullish")
		candleCount := request.GetInt("candle_count", 3)
		minGrowth := request.GetFloat("min_growth", 2.0)
		limit := request.GetInt("limit", 20)

		result := s.svc.ConsecutiveCandles(ctx, exchange, timeframe, patternType, candleCount, minGrowth, limit)
		return jsonResult(result)
	}
}

// handleAdvancedPattern implements the advanced_candle_pattern tool.
func (s *Server) handleAdvancedPattern() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("advanced_candle_pattern")
		exchange := request.GetString("exchange", "KUCOIN")
		baseTimeframe := request.GetString("base_timeframe", "15m")
		patternLength := request.GetInt("pattern_length", 3)
		minSizeIncrease := request.GetFloat("min_size_increase", 10.0)
		limit := request.GetInt("limit", 15)

		result := s.svc.AdvancedPattern(ctx, exchange, baseTimeframe, patternLength, minSizeIncrease, limit)
		return jsonResult(result)
	}
}

// handleVolumeBreakouts implements the volume_breakout_scanner tool.
// Failures degrade to an empty list by design of the scan itself.
func (s *Server) handleVolumeBreakouts() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("volume_breakout_scanner")
		exchange := request.GetString("exchange", "KUCOIN")
		timeframe := request.GetString("timeframe", "15m")
		multiplier := request.GetFloat("volume_multiplier", 2.0)
		priceChangeMin := request.GetFloat("price_change_min", 3.0)
		limit := request.GetInt("limit", 25)

		breakouts := s.svc.VolumeBreakouts(ctx, exchange, timeframe, multiplier, priceChangeMin, limit)
		return jsonResult(breakouts)
	}
}

// handleVolumeConfirmation implements the volume_confirmation_analysis tool.
func (s *Server) handleVolumeConfirmation() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("volume_confirmation_analysis")
		symbol, err := request.RequireString("symbol")
		if err != nil || symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		exchange := request.GetString("exchange", "KUCOIN")
		timeframe := request.GetString("timeframe", "15m")

		report := s.svc.VolumeConfirmation(ctx, symbol, exchange, timeframe)
		return jsonResult(report)
	}
}

// handleSmartVolume implements the smart_volume_scanner tool.
func (s *Server) handleSmartVolume() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("smart_volume_scanner")
		exchange := request.GetString("exchange", "KUCOIN")
		minVolumeRatio := request.GetFloat("min_volume_ratio", 2.0)
		minPriceChange := request.GetFloat("min_price_change", 2.0)
		rsiRange := request.GetString("rsi_range", "any")
		limit := request.GetInt("limit", 20)

		results := s.svc.SmartVolumeScan(ctx, exchange, minVolumeRatio, minPriceChange, rsiRange, limit)
		return jsonResult(results)
	}
}

// handleMultiChanges implements the multi_changes tool.
func (s *Server) handleMultiChanges() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logCall("multi_changes")
		exchange := request.GetString("exchange", "KUCOIN")
		timeframes := request.GetStringSlice("timeframes", nil)
		baseTimeframe := request.GetString("base_timeframe", "4h")
		limit := request.GetInt("limit", 50)

		rows, err := s.svc.MultiChanges(ctx, exchange, timeframes, baseTimeframe, limit)
		if err != nil {
			s.logger.Error().Err(err).Str("exchange", exchange).Msg("Multi changes query failed")
			return errorResult(fmt.Sprintf("Scan error: %v", err)), nil
		}
		return jsonResult(rows)
	}
}

// jsonResult marshals v as the single text content of a tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Sprintf("Encoding error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
