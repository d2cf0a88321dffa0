package screener

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/t3rmed/tradingview-mcp/internal/metrics"
	"github.com/t3rmed/tradingview-mcp/internal/models"
	"github.com/t3rmed/tradingview-mcp/internal/tradingview"
)

// PatternScanResult is the consecutive-candle scan envelope. Error carries
// the failure text when the scan could not run; Data is then empty.
type PatternScanResult struct {
	Error       string               `json:"error,omitempty"`
	Exchange    string               `json:"exchange"`
	Timeframe   string               `json:"timeframe"`
	PatternType string               `json:"pattern_type,omitempty"`
	CandleCount int                  `json:"candle_count,omitempty"`
	MinGrowth   float64              `json:"min_growth,omitempty"`
	TotalFound  int                  `json:"total_found"`
	Data        []models.PatternCoin `json:"data"`
}

// ConsecutiveCandles scans for symbols whose current candle shows the
// momentum profile of a consecutive bullish or bearish run. The provider
// only exposes the current bar, so the run is approximated from candle
// body, moving-average position, RSI window and volume.
func (s *Service) ConsecutiveCandles(ctx context.Context, exchange, timeframe, patternType string, candleCount int, minGrowth float64, limit int) *PatternScanResult {
	exchange = SanitizeExchange(exchange, "kucoin")
	timeframe = SanitizeTimeframe(timeframe, "15m")
	candleCount = ClampInt(candleCount, 2, 5)
	minGrowth = ClampFloat(minGrowth, 0.5, 20.0)
	limit = ClampInt(limit, 1, 50)
	if patternType != "bearish" {
		patternType = "bullish"
	}

	// Error envelopes carry only the error, exchange and timeframe; the
	// scan parameters are reported on success alone.
	result := &PatternScanResult{
		Exchange:  exchange,
		Timeframe: timeframe,
		Data:      []models.PatternCoin{},
	}

	symbols := s.symbols.LoadSymbols(exchange)
	if len(symbols) == 0 {
		result.Error = fmt.Sprintf("No symbols found for exchange: %s", exchange)
		return result
	}
	if sample := min(limit*3, 200); len(symbols) > sample {
		symbols = symbols[:sample]
	}

	snapshots, err := s.provider.Analyze(ctx, ScreenerFor(exchange), timeframe, qualifySymbols(exchange, symbols))
	if err != nil {
		result.Error = fmt.Sprintf("Pattern analysis failed: %v", err)
		return result
	}
	result.PatternType = patternType
	result.CandleCount = candleCount
	result.MinGrowth = minGrowth

	coins := make([]models.PatternCoin, 0)
	var skips []Skip
	for symbol, snap := range snapshots {
		coin, reason := buildPatternCoin(symbol, snap, patternType, minGrowth)
		if reason != "" {
			skips = append(skips, Skip{Symbol: symbol, Reason: reason})
			continue
		}
		coins = append(coins, *coin)
	}
	s.logSkips("consecutive_candles_scan", skips)

	sort.Slice(coins, func(i, j int) bool {
		if coins[i].PatternStrength != coins[j].PatternStrength {
			return coins[i].PatternStrength > coins[j].PatternStrength
		}
		if patternType == "bearish" {
			return coins[i].CurrentChange < coins[j].CurrentChange
		}
		return coins[i].CurrentChange > coins[j].CurrentChange
	})

	result.TotalFound = len(coins)
	if len(coins) > limit {
		coins = coins[:limit]
	}
	result.Data = coins
	return result
}

// buildPatternCoin evaluates one snapshot against the consecutive-candle
// conditions. Five conditions score one point each; three points detect.
func buildPatternCoin(symbol string, snap models.Snapshot, patternType string, minGrowth float64) (*models.PatternCoin, string) {
	if snap == nil {
		return nil, "no analysis data"
	}
	openPrice, hasOpen := snap.Value(models.IndOpen)
	closePrice, hasClose := snap.Value(models.IndClose)
	highPrice, hasHigh := snap.Value(models.IndHigh)
	lowPrice, hasLow := snap.Value(models.IndLow)
	if !hasOpen || !hasClose || !hasHigh || !hasLow ||
		openPrice == 0 || closePrice == 0 || highPrice == 0 || lowPrice == 0 {
		return nil, "incomplete OHLC"
	}

	volume := snap.Get(models.IndVolume, 0)
	currentChange := (closePrice - openPrice) / openPrice * 100
	bodyRatio := 0.0
	if candleRange := highPrice - lowPrice; candleRange > 0 {
		bodyRatio = math.Abs(closePrice-openPrice) / candleRange
	}

	rsi := snap.Get(models.IndRSI, 50)
	sma20 := snap.Get(models.IndSMA20, closePrice)
	ema50 := snap.Get(models.IndEMA50, closePrice)
	aboveSMA := closePrice > sma20
	aboveEMA := closePrice > ema50

	var conditions []bool
	if patternType == "bearish" {
		conditions = []bool{
			currentChange < -minGrowth,
			bodyRatio > 0.6,
			!aboveSMA,
			rsi < 55 && rsi > 20,
			volume > 1000,
		}
	} else {
		conditions = []bool{
			currentChange > minGrowth,
			bodyRatio > 0.6,
			aboveSMA,
			rsi > 45 && rsi < 80,
			volume > 1000,
		}
	}

	strength := 0
	for _, ok := range conditions {
		if ok {
			strength++
		}
	}
	if strength < 3 {
		return nil, "pattern not detected"
	}

	rating := 0
	if m := metrics.Compute(snap); m != nil {
		rating = m.Rating
	}

	return &models.PatternCoin{
		Symbol:          symbol,
		Price:           metrics.Round6(closePrice),
		CurrentChange:   metrics.Round3(currentChange),
		CandleBodyRatio: metrics.Round3(bodyRatio),
		PatternStrength: strength,
		Volume:          volume,
		BollingerRating: rating,
		RSI:             metrics.Round2(rsi),
		PriceLevels: models.PriceLevels{
			Open:  metrics.Round6(openPrice),
			High:  metrics.Round6(highPrice),
			Low:   metrics.Round6(lowPrice),
			Close: metrics.Round6(closePrice),
		},
		MomentumSignals: models.MomentumSignals{
			AboveSMA20:   aboveSMA,
			AboveEMA50:   aboveEMA,
			StrongVolume: volume > 5000,
		},
	}, ""
}

// AdvancedScanResult is the advanced pattern scan envelope. Data holds
// []TablePattern for the multi-timeframe method and []models.AdvancedPattern
// for the single-timeframe fallback; Method names which ran.
type AdvancedScanResult struct {
	Error           string      `json:"error,omitempty"`
	Exchange        string      `json:"exchange"`
	BaseTimeframe   string      `json:"base_timeframe"`
	PatternLength   int         `json:"pattern_length,omitempty"`
	MinSizeIncrease float64     `json:"min_size_increase,omitempty"`
	Method          string      `json:"method,omitempty"`
	TotalFound      int         `json:"total_found"`
	Data            interface{} `json:"data"`
}

// TablePattern is one row of the multi-timeframe pattern method.
type TablePattern struct {
	Symbol       string   `json:"symbol"`
	PatternScore int      `json:"pattern_score"`
	Price        float64  `json:"price"`
	Change       float64  `json:"change"`
	BodyRatio    float64  `json:"body_ratio"`
	Volume       float64  `json:"volume"`
	RSI          float64  `json:"rsi"`
	Details      []string `json:"details"`
}

// AdvancedPattern scores candle patterns, preferring the tabular
// multi-timeframe query and falling back to single-snapshot scoring when
// the table provider is absent or the query fails.
func (s *Service) AdvancedPattern(ctx context.Context, exchange, baseTimeframe string, patternLength int, minSizeIncrease float64, limit int) *AdvancedScanResult {
	exchange = SanitizeExchange(exchange, "kucoin")
	baseTimeframe = SanitizeTimeframe(baseTimeframe, "15m")
	patternLength = ClampInt(patternLength, 2, 4)
	minSizeIncrease = ClampFloat(minSizeIncrease, 5.0, 50.0)
	limit = ClampInt(limit, 1, 30)

	result := &AdvancedScanResult{
		Exchange:      exchange,
		BaseTimeframe: baseTimeframe,
		Data:          []models.AdvancedPattern{},
	}

	symbols := s.symbols.LoadSymbols(exchange)
	if len(symbols) == 0 {
		result.Error = fmt.Sprintf("No symbols found for exchange: %s", exchange)
		return result
	}
	if sample := min(limit*2, 100); len(symbols) > sample {
		symbols = symbols[:sample]
	}

	if s.table != nil {
		rows, err := s.tablePatterns(ctx, exchange, baseTimeframe, len(symbols), minSizeIncrease)
		if err == nil {
			result.PatternLength = patternLength
			result.MinSizeIncrease = minSizeIncrease
			result.Method = "multi-timeframe"
			result.TotalFound = len(rows)
			if len(rows) > limit {
				rows = rows[:limit]
			}
			result.Data = rows
			return result
		}
		s.logger.Debug().Err(err).Msg("Table query failed, falling back to single timeframe")
	}

	snapshots, err := s.provider.Analyze(ctx, ScreenerFor(exchange), baseTimeframe, qualifySymbols(exchange, symbols))
	if err != nil {
		result.Error = fmt.Sprintf("Advanced pattern analysis failed: %v", err)
		return result
	}
	result.PatternLength = patternLength
	result.MinSizeIncrease = minSizeIncrease

	patterns := make([]models.AdvancedPattern, 0)
	for symbol, snap := range snapshots {
		if snap == nil {
			continue
		}
		score := scorePattern(snap, minSizeIncrease)
		if !score.Detected {
			continue
		}
		rating := 0
		if m := metrics.Compute(snap); m != nil {
			rating = m.Rating
		}
		momentum := "Moderate"
		if math.Abs(score.TotalChange) > minSizeIncrease {
			momentum = "Strong"
		}
		volumeTrend := "Low"
		if snap.Get(models.IndVolume, 0) > 10000 {
			volumeTrend = "High"
		}
		patterns = append(patterns, models.AdvancedPattern{
			Symbol:          symbol,
			PatternScore:    score.Score,
			PatternDetails:  score.Details,
			CurrentPrice:    score.Price,
			TotalChange:     score.TotalChange,
			Volume:          snap.Get(models.IndVolume, 0),
			BollingerRating: rating,
			TechnicalStrength: models.TechnicalStrength{
				RSI:         metrics.Round2(snap.Get(models.IndRSI, 50)),
				Momentum:    momentum,
				VolumeTrend: volumeTrend,
			},
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].PatternScore != patterns[j].PatternScore {
			return patterns[i].PatternScore > patterns[j].PatternScore
		}
		return math.Abs(patterns[i].TotalChange) > math.Abs(patterns[j].TotalChange)
	})

	result.Method = "enhanced-single-timeframe"
	result.TotalFound = len(patterns)
	if len(patterns) > limit {
		patterns = patterns[:limit]
	}
	result.Data = patterns
	return result
}

// tablePatterns runs the tabular multi-timeframe query and scores each row.
func (s *Service) tablePatterns(ctx context.Context, exchange, baseTimeframe string, limit int, minSizeIncrease float64) ([]TablePattern, error) {
	suffix := ""
	if res := tradingview.Resolution(baseTimeframe); res != "" {
		suffix = "|" + res
	}
	cols := []string{
		"open" + suffix,
		"close" + suffix,
		"high" + suffix,
		"low" + suffix,
		"volume" + suffix,
		"RSI",
	}

	rows, err := s.table.Rows(ctx, tradingview.TableRequest{
		Market:   "crypto",
		Columns:  cols,
		Exchange: strings.ToUpper(exchange),
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]TablePattern, 0, len(rows))
	for _, row := range rows {
		snap := models.Snapshot{}
		for requested, canonical := range map[string]string{
			cols[0]: models.IndOpen,
			cols[1]: models.IndClose,
			cols[2]: models.IndHigh,
			cols[3]: models.IndLow,
			cols[4]: models.IndVolume,
			"RSI":   models.IndRSI,
		} {
			if v := row.Values[requested]; v != nil {
				snap[canonical] = *v
			}
		}
		if !snap.Has(models.IndOpen, models.IndClose, models.IndHigh, models.IndLow) {
			continue
		}

		score := scorePattern(snap, minSizeIncrease)
		if !score.Detected {
			continue
		}
		out = append(out, TablePattern{
			Symbol:       row.Ticker,
			PatternScore: score.Score,
			Price:        score.Price,
			Change:       score.TotalChange,
			BodyRatio:    score.BodyRatio,
			Volume:       snap.Get(models.IndVolume, 0),
			RSI:          metrics.Round2(snap.Get(models.IndRSI, 50)),
			Details:      score.Details,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PatternScore > out[j].PatternScore })
	return out, nil
}

// scorePattern grades a single candle on body strength, momentum, volume,
// RSI alignment and trend alignment. Three points detect.
func scorePattern(snap models.Snapshot, minIncrease float64) *models.PatternScore {
	openPrice := snap.Get(models.IndOpen, 0)
	closePrice := snap.Get(models.IndClose, 0)
	highPrice := snap.Get(models.IndHigh, 0)
	lowPrice := snap.Get(models.IndLow, 0)
	volume := snap.Get(models.IndVolume, 0)
	rsi := snap.Get(models.IndRSI, 50)

	if openPrice == 0 || closePrice == 0 || highPrice == 0 || lowPrice == 0 {
		return &models.PatternScore{}
	}

	bodyRatio := 0.0
	if candleRange := highPrice - lowPrice; candleRange > 0 {
		bodyRatio = math.Abs(closePrice-openPrice) / candleRange
	}
	priceChange := (closePrice - openPrice) / openPrice * 100

	score := 0
	var details []string

	if bodyRatio > 0.7 {
		score += 2
		details = append(details, "Strong candle body")
	} else if bodyRatio > 0.5 {
		score++
		details = append(details, "Moderate candle body")
	}

	if math.Abs(priceChange) >= minIncrease {
		score += 2
		details = append(details, fmt.Sprintf("Strong momentum (%.1f%%)", priceChange))
	} else if math.Abs(priceChange) >= minIncrease/2 {
		score++
		details = append(details, fmt.Sprintf("Moderate momentum (%.1f%%)", priceChange))
	}

	if volume > 5000 {
		score++
		details = append(details, "Good volume")
	}

	if (priceChange > 0 && rsi > 50 && rsi < 80) || (priceChange < 0 && rsi > 20 && rsi < 50) {
		score++
		details = append(details, "RSI momentum aligned")
	}

	ema50 := snap.Get(models.IndEMA50, closePrice)
	if (priceChange > 0 && closePrice > ema50) || (priceChange < 0 && closePrice < ema50) {
		score++
		details = append(details, "Trend alignment")
	}

	return &models.PatternScore{
		Detected:    score >= 3,
		Score:       score,
		Details:     details,
		Price:       metrics.Round6(closePrice),
		TotalChange: metrics.Round3(priceChange),
		BodyRatio:   metrics.Round3(bodyRatio),
		Volume:      volume,
	}
}
