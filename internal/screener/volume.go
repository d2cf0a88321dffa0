package screener

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/t3rmed/tradingview-mcp/internal/logging"
	"github.com/t3rmed/tradingview-mcp/internal/metrics"
	"github.com/t3rmed/tradingview-mcp/internal/models"
)

const (
	breakoutBatchSize = 100
	// Whole-exchange breakout scans stop after this many symbols to keep
	// the sequential batch loop bounded.
	breakoutSymbolCap = 500
)

// VolumeBreakouts detects symbols whose current volume runs a multiple of
// its 20-period average while price moved at least priceChangeMin percent.
// Scan failures degrade to an empty result rather than an error.
func (s *Service) VolumeBreakouts(ctx context.Context, exchange, timeframe string, volumeMultiplier, priceChangeMin float64, limit int) []models.Breakout {
	exchange = SanitizeExchange(exchange, "kucoin")
	timeframe = SanitizeTimeframe(timeframe, "15m")
	volumeMultiplier = ClampFloat(volumeMultiplier, 1.5, 10.0)
	priceChangeMin = ClampFloat(priceChangeMin, 1.0, 20.0)
	limit = ClampInt(limit, 1, 50)

	symbols := s.symbols.LoadSymbols(exchange)
	if len(symbols) == 0 {
		logger := logging.WithExchange(s.logger, exchange)
		logger.Warn().Msg("No symbols for breakout scan")
		return []models.Breakout{}
	}
	if len(symbols) > breakoutSymbolCap {
		symbols = symbols[:breakoutSymbolCap]
	}

	snapshots := s.analyzeBatched(ctx, ScreenerFor(exchange), timeframe, qualifySymbols(exchange, symbols), breakoutBatchSize)

	breakouts := make([]models.Breakout, 0)
	var skips []Skip
	for symbol, snap := range snapshots {
		b, reason := buildBreakout(symbol, snap, volumeMultiplier, priceChangeMin)
		if reason != "" {
			skips = append(skips, Skip{Symbol: symbol, Reason: reason})
			continue
		}
		breakouts = append(breakouts, *b)
	}
	s.logSkips("volume_breakout_scanner", skips)

	sort.Slice(breakouts, func(i, j int) bool {
		if breakouts[i].VolumeStrength != breakouts[j].VolumeStrength {
			return breakouts[i].VolumeStrength > breakouts[j].VolumeStrength
		}
		return math.Abs(breakouts[i].ChangePercent) > math.Abs(breakouts[j].ChangePercent)
	})
	if len(breakouts) > limit {
		breakouts = breakouts[:limit]
	}
	return breakouts
}

// buildBreakout evaluates one snapshot against the breakout conditions.
func buildBreakout(symbol string, snap models.Snapshot, volumeMultiplier, priceChangeMin float64) (*models.Breakout, string) {
	if snap == nil {
		return nil, "no analysis data"
	}
	volume, hasVolume := snap.Value(models.IndVolume)
	closePrice, hasClose := snap.Value(models.IndClose)
	openPrice, hasOpen := snap.Value(models.IndOpen)
	if !hasVolume || !hasClose || !hasOpen || volume <= 0 || closePrice == 0 || openPrice == 0 {
		return nil, "missing volume/open/close"
	}

	priceChange := (closePrice - openPrice) / openPrice * 100

	// The provider rarely reports volume.SMA20; fall back to treating the
	// current bar as twice its average, a deliberately conservative guess
	// that yields ratio 2.0.
	ratio := 1.0
	if smaVolume := snap.Get(models.IndVolumeSMA20, 0); smaVolume > 0 {
		ratio = volume / smaVolume
	} else if estimate := volume / 2; estimate > 0 {
		ratio = volume / estimate
	}

	if math.Abs(priceChange) < priceChangeMin || ratio < volumeMultiplier {
		return nil, "below breakout thresholds"
	}

	breakoutType := "bearish"
	if priceChange > 0 {
		breakoutType = "bullish"
	}

	return &models.Breakout{
		Symbol:         symbol,
		ChangePercent:  priceChange,
		VolumeRatio:    metrics.Round2(ratio),
		VolumeStrength: metrics.Round1(math.Min(10, ratio)),
		CurrentVolume:  volume,
		BreakoutType:   breakoutType,
		Indicators: models.BreakoutIndicatorMap{
			Close:   closePrice,
			RSI:     snap.Get(models.IndRSI, 50),
			BBUpper: snap.Get(models.IndBBUpper, 0),
			BBLower: snap.Get(models.IndBBLower, 0),
			Volume:  volume,
		},
	}, ""
}

// VolumeReport is the single-symbol volume confirmation result.
type VolumeReport struct {
	Error          string             `json:"error,omitempty"`
	Symbol         string             `json:"symbol,omitempty"`
	PriceData      *VolumePriceData   `json:"price_data,omitempty"`
	VolumeAnalysis *VolumeAnalysis    `json:"volume_analysis,omitempty"`
	Technical      *VolumeTechnical   `json:"technical_indicators,omitempty"`
	Signals        []string           `json:"signals,omitempty"`
	Assessment     *SignalAssessment  `json:"overall_assessment,omitempty"`
}

// VolumePriceData holds the current candle of a volume report.
type VolumePriceData struct {
	Close              float64 `json:"close"`
	ChangePercent      float64 `json:"change_percent"`
	CandleRangePercent float64 `json:"candle_range_percent"`
}

// VolumeAnalysis holds the ratio read of a volume report.
type VolumeAnalysis struct {
	CurrentVolume  float64 `json:"current_volume"`
	VolumeRatio    float64 `json:"volume_ratio"`
	VolumeStrength string  `json:"volume_strength"`
	AverageVolume  float64 `json:"average_volume"`
}

// VolumeTechnical holds the band and RSI context of a volume report.
type VolumeTechnical struct {
	RSI        float64 `json:"RSI"`
	BBPosition string  `json:"BB_position"`
	BBUpper    float64 `json:"BB_upper"`
	BBLower    float64 `json:"BB_lower"`
}

// SignalAssessment counts the signal classes of a volume report.
type SignalAssessment struct {
	BullishSignals int `json:"bullish_signals"`
	BearishSignals int `json:"bearish_signals"`
	WarningSignals int `json:"warning_signals"`
}

// VolumeConfirmation runs the detailed volume read for one symbol. The
// symbol is forced onto its USDT pair. Failures come back inside the
// report, never as a Go error.
func (s *Service) VolumeConfirmation(ctx context.Context, symbol, exchange, timeframe string) *VolumeReport {
	exchange = SanitizeExchange(exchange, "kucoin")
	timeframe = SanitizeTimeframe(timeframe, "15m")

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !strings.HasSuffix(symbol, "USDT") {
		symbol += "USDT"
	}
	full := symbol
	if !strings.Contains(full, ":") {
		full = strings.ToUpper(exchange) + ":" + full
	}

	snapshots, err := s.provider.Analyze(ctx, ScreenerFor(exchange), timeframe, []string{full})
	if err != nil {
		return &VolumeReport{Error: fmt.Sprintf("Analysis failed: %v", err)}
	}
	snap := snapshots[full]
	if snap == nil {
		return &VolumeReport{Error: fmt.Sprintf("No data found for %s", symbol)}
	}

	volume := snap.Get(models.IndVolume, 0)
	closePrice := snap.Get(models.IndClose, 0)
	openPrice := snap.Get(models.IndOpen, 0)
	high := snap.Get(models.IndHigh, 0)
	low := snap.Get(models.IndLow, 0)

	priceChange := 0.0
	if openPrice > 0 {
		priceChange = (closePrice - openPrice) / openPrice * 100
	}
	candleRange := 0.0
	if low > 0 {
		candleRange = (high - low) / low * 100
	}

	avgVolume := snap.Get(models.IndVolumeSMA20, 0)
	ratio := 1.0
	if avgVolume > 0 {
		ratio = volume / avgVolume
	}

	rsi := snap.Get(models.IndRSI, 50)
	bbUpper := snap.Get(models.IndBBUpper, 0)
	bbLower := snap.Get(models.IndBBLower, 0)

	var signals []string
	assessment := &SignalAssessment{}
	bullish := func(s string) { signals = append(signals, s); assessment.BullishSignals++ }
	bearish := func(s string) { signals = append(signals, s); assessment.BearishSignals++ }
	warning := func(s string) { signals = append(signals, s); assessment.WarningSignals++ }

	if ratio >= 2.0 && math.Abs(priceChange) >= 3.0 {
		bullish(fmt.Sprintf("STRONG BREAKOUT: %.1fx volume + %.1f%% price", ratio, priceChange))
	}
	if ratio >= 1.5 && math.Abs(priceChange) < 1.0 {
		warning(fmt.Sprintf("VOLUME DIVERGENCE: High volume (%.1fx) but low price movement", ratio))
	}
	if math.Abs(priceChange) >= 2.0 && ratio < 0.8 {
		bearish(fmt.Sprintf("WEAK SIGNAL: Price moved but volume is low (%.1fx)", ratio))
	}
	if closePrice > bbUpper && ratio >= 1.5 {
		bullish("BB BREAKOUT CONFIRMED: Upper band breakout + volume confirmation")
	} else if closePrice < bbLower && ratio >= 1.5 {
		bearish("BB SELL CONFIRMED: Lower band breakout + volume confirmation")
	}
	if rsi > 70 && ratio >= 2.0 {
		signals = append(signals, fmt.Sprintf("OVERBOUGHT + VOLUME: RSI %.1f + %.1fx volume", rsi, ratio))
	} else if rsi < 30 && ratio >= 2.0 {
		bullish(fmt.Sprintf("OVERSOLD + VOLUME: RSI %.1f + %.1fx volume", rsi, ratio))
	}

	position := "WITHIN"
	if closePrice > bbUpper {
		position = "ABOVE"
	} else if closePrice < bbLower {
		position = "BELOW"
	}

	return &VolumeReport{
		Symbol: symbol,
		PriceData: &VolumePriceData{
			Close:              closePrice,
			ChangePercent:      metrics.Round2(priceChange),
			CandleRangePercent: metrics.Round2(candleRange),
		},
		VolumeAnalysis: &VolumeAnalysis{
			CurrentVolume:  volume,
			VolumeRatio:    metrics.Round2(ratio),
			VolumeStrength: volumeStrength(ratio),
			AverageVolume:  avgVolume,
		},
		Technical: &VolumeTechnical{
			RSI:        metrics.Round1(rsi),
			BBPosition: position,
			BBUpper:    bbUpper,
			BBLower:    bbLower,
		},
		Signals:    signals,
		Assessment: assessment,
	}
}

// volumeStrength labels a volume ratio.
func volumeStrength(ratio float64) string {
	switch {
	case ratio >= 3.0:
		return "VERY STRONG"
	case ratio >= 2.0:
		return "STRONG"
	case ratio >= 1.5:
		return "MEDIUM"
	case ratio >= 1.0:
		return "NORMAL"
	default:
		return "WEAK"
	}
}

// SmartVolumeScan combines the breakout scanner with an RSI window filter
// and attaches a trading recommendation per row. rsiRange is one of
// "oversold", "overbought", "neutral" or "any".
func (s *Service) SmartVolumeScan(ctx context.Context, exchange string, minVolumeRatio, minPriceChange float64, rsiRange string, limit int) []models.Breakout {
	exchange = SanitizeExchange(exchange, "kucoin")
	minVolumeRatio = ClampFloat(minVolumeRatio, 1.2, 10.0)
	minPriceChange = ClampFloat(minPriceChange, 0.5, 20.0)
	limit = ClampInt(limit, 1, 30)

	// Over-fetch so the RSI filter still has candidates to drop.
	breakouts := s.VolumeBreakouts(ctx, exchange, "15m", minVolumeRatio, minPriceChange, limit*2)
	if len(breakouts) == 0 {
		return []models.Breakout{}
	}

	filtered := make([]models.Breakout, 0, len(breakouts))
	for _, coin := range breakouts {
		rsi := coin.Indicators.RSI
		switch rsiRange {
		case "oversold":
			if rsi >= 30 {
				continue
			}
		case "overbought":
			if rsi <= 70 {
				continue
			}
		case "neutral":
			if rsi <= 30 || rsi >= 70 {
				continue
			}
		}

		switch {
		case coin.ChangePercent > 0 && coin.VolumeRatio >= 2.0:
			if rsi < 70 {
				coin.Recommendation = "STRONG BUY"
			} else {
				coin.Recommendation = "OVERBOUGHT - CAUTION"
			}
		case coin.ChangePercent < 0 && coin.VolumeRatio >= 2.0:
			if rsi > 30 {
				coin.Recommendation = "STRONG SELL"
			} else {
				coin.Recommendation = "OVERSOLD - OPPORTUNITY?"
			}
		}
		filtered = append(filtered, coin)
	}

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}
