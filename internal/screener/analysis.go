package screener

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/t3rmed/tradingview-mcp/internal/errors"
	"github.com/t3rmed/tradingview-mcp/internal/metrics"
	"github.com/t3rmed/tradingview-mcp/internal/models"
)

// CoinReport is the full single-symbol report. When Error is set every
// other section is absent; the report is still returned as a normal value
// so the tool surface stays a single JSON shape.
type CoinReport struct {
	Error     string               `json:"error,omitempty"`
	Symbol    string               `json:"symbol"`
	Exchange  string               `json:"exchange"`
	Timeframe string               `json:"timeframe"`
	Timestamp string               `json:"timestamp,omitempty"`
	PriceData *PriceData           `json:"price_data,omitempty"`
	Bollinger *BollingerAnalysis   `json:"bollinger_analysis,omitempty"`
	Technical *TechnicalIndicators `json:"technical_indicators,omitempty"`
	Sentiment *MarketSentiment     `json:"market_sentiment,omitempty"`
}

// PriceData holds the current candle of a coin report. The OHLC fields are
// null when the provider reported no value (or zero).
type PriceData struct {
	CurrentPrice  float64  `json:"current_price"`
	Open          *float64 `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Close         *float64 `json:"close"`
	ChangePercent *float64 `json:"change_percent"`
	Volume        float64  `json:"volume"`
}

// BollingerAnalysis holds the band read of a coin report. Position labels
// where the close sits relative to the bands.
type BollingerAnalysis struct {
	Rating   int      `json:"rating"`
	Signal   string   `json:"signal"`
	BBW      *float64 `json:"bbw"`
	BBUpper  float64  `json:"bb_upper"`
	BBMiddle float64  `json:"bb_middle"`
	BBLower  float64  `json:"bb_lower"`
	Position string   `json:"position"`
}

// TechnicalIndicators holds the oscillator and moving-average values of a
// coin report. Absent indicators report as zero, matching the provider's
// loose contract for these columns.
type TechnicalIndicators struct {
	RSI            float64 `json:"rsi"`
	RSISignal      string  `json:"rsi_signal"`
	SMA20          float64 `json:"sma20"`
	EMA50          float64 `json:"ema50"`
	EMA200         float64 `json:"ema200"`
	MACD           float64 `json:"macd"`
	MACDSignal     float64 `json:"macd_signal"`
	MACDDivergence float64 `json:"macd_divergence"`
	ADX            float64 `json:"adx"`
	TrendStrength  string  `json:"trend_strength"`
	StochK         float64 `json:"stoch_k"`
	StochD         float64 `json:"stoch_d"`
}

// MarketSentiment is the qualitative summary of a coin report.
type MarketSentiment struct {
	OverallRating int    `json:"overall_rating"`
	BuySellSignal string `json:"buy_sell_signal"`
	Volatility    string `json:"volatility"`
	Momentum      string `json:"momentum"`
}

// CoinAnalysis builds the full report for one symbol. Lookup failures are
// reported inside the returned value, never as a Go error, so callers can
// hand the result straight to the client.
func (s *Service) CoinAnalysis(ctx context.Context, symbol, exchange, timeframe string) *CoinReport {
	exchange = SanitizeExchange(exchange, "kucoin")
	timeframe = SanitizeTimeframe(timeframe, "15m")
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	report := &CoinReport{Symbol: symbol, Exchange: exchange, Timeframe: timeframe}

	full := symbol
	if !strings.Contains(full, ":") {
		full = strings.ToUpper(exchange) + ":" + full
	}

	snapshots, err := s.provider.Analyze(ctx, ScreenerFor(exchange), timeframe, []string{full})
	if err != nil {
		report.Error = apperrors.NewDataError("analysis", full, "provider request failed", err).Error()
		return report
	}
	snap := snapshots[full]
	if snap == nil {
		report.Error = fmt.Sprintf("No data found for %s on %s", symbol, exchange)
		return report
	}

	m := metrics.Compute(snap)
	if m == nil {
		report.Error = fmt.Sprintf("Could not compute metrics for %s", symbol)
		return report
	}

	closePrice := snap.Get(models.IndClose, 0)
	bbUpper := snap.Get(models.IndBBUpper, 0)
	bbLower := snap.Get(models.IndBBLower, 0)
	rsi := snap.Get(models.IndRSI, 0)
	adx := snap.Get(models.IndADX, 0)
	macd := snap.Get(models.IndMACD, 0)
	macdSignal := snap.Get(models.IndMACDSignal, 0)

	report.Symbol = full
	report.Timestamp = time.Now().UTC().Format(time.RFC3339)
	report.PriceData = &PriceData{
		CurrentPrice:  metrics.Round6(m.Price),
		Open:          nonZeroPtr6(snap, models.IndOpen),
		High:          nonZeroPtr6(snap, models.IndHigh),
		Low:           nonZeroPtr6(snap, models.IndLow),
		Close:         nonZeroPtr6(snap, models.IndClose),
		ChangePercent: roundPtr2(m.Change),
		Volume:        snap.Get(models.IndVolume, 0),
	}
	report.Bollinger = &BollingerAnalysis{
		Rating:   m.Rating,
		Signal:   m.Signal,
		BBW:      roundPtr6(m.BBW),
		BBUpper:  metrics.Round6(bbUpper),
		BBMiddle: metrics.Round6(snap.Get(models.IndSMA20, 0)),
		BBLower:  metrics.Round6(bbLower),
		Position: bandPosition(closePrice, bbUpper, bbLower),
	}
	report.Technical = &TechnicalIndicators{
		RSI:            metrics.Round2(rsi),
		RSISignal:      rsiSignal(rsi),
		SMA20:          metrics.Round6(snap.Get(models.IndSMA20, 0)),
		EMA50:          metrics.Round6(snap.Get(models.IndEMA50, 0)),
		EMA200:         metrics.Round6(snap.Get(models.IndEMA200, 0)),
		MACD:           metrics.Round6(macd),
		MACDSignal:     metrics.Round6(macdSignal),
		MACDDivergence: metrics.Round6(macd - macdSignal),
		ADX:            metrics.Round2(adx),
		TrendStrength:  trendStrength(adx),
		StochK:         metrics.Round2(snap.Get(models.IndStochK, 0)),
		StochD:         metrics.Round2(snap.Get(models.IndStochD, 0)),
	}
	report.Sentiment = sentiment(m)
	return report
}

// sentiment derives the qualitative summary: volatility from the band
// width, momentum from the sign of the change, overall from the rating.
func sentiment(m *metrics.Metrics) *MarketSentiment {
	bbw := 0.0
	if m.BBW != nil {
		bbw = *m.BBW
	}
	volatility := "Low"
	switch {
	case bbw > 0.05:
		volatility = "High"
	case bbw > 0.02:
		volatility = "Medium"
	}

	momentum := "Bearish"
	if m.Change != nil && *m.Change > 0 {
		momentum = "Bullish"
	}

	return &MarketSentiment{
		OverallRating: m.Rating,
		BuySellSignal: m.Signal,
		Volatility:    volatility,
		Momentum:      momentum,
	}
}

func bandPosition(close, upper, lower float64) string {
	switch {
	case close > upper:
		return "Above Upper"
	case close < lower:
		return "Below Lower"
	default:
		return "Within Bands"
	}
}

func rsiSignal(rsi float64) string {
	switch {
	case rsi > 70:
		return "Overbought"
	case rsi < 30:
		return "Oversold"
	default:
		return "Neutral"
	}
}

func trendStrength(adx float64) string {
	if adx > 25 {
		return "Strong"
	}
	return "Weak"
}

// nonZeroPtr6 reads an indicator as a rounded pointer, with absent and
// zero both reporting null.
func nonZeroPtr6(snap models.Snapshot, name string) *float64 {
	v, ok := snap.Value(name)
	if !ok || v == 0 {
		return nil
	}
	r := metrics.Round6(v)
	return &r
}

func roundPtr6(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := metrics.Round6(*v)
	return &r
}

func roundPtr2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := metrics.Round2(*v)
	return &r
}
