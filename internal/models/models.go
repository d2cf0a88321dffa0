// Package models provides domain models for the screener server.
package models

// Indicator names as returned by the market-data provider.
const (
	IndOpen        = "open"
	IndClose       = "close"
	IndHigh        = "high"
	IndLow         = "low"
	IndVolume      = "volume"
	IndSMA20       = "SMA20"
	IndBBUpper     = "BB.upper"
	IndBBLower     = "BB.lower"
	IndEMA50       = "EMA50"
	IndEMA200      = "EMA200"
	IndRSI         = "RSI"
	IndMACD        = "MACD.macd"
	IndMACDSignal  = "MACD.signal"
	IndADX         = "ADX"
	IndStochK      = "Stoch.K"
	IndStochD      = "Stoch.D"
	IndVolumeSMA20 = "volume.SMA20"
)

// Snapshot is a raw indicator snapshot for one symbol at one interval.
// A missing key means the provider had no value for that indicator; callers
// must treat absence as "unknown", not zero.
type Snapshot map[string]float64

// Value returns the named indicator and whether it was present.
func (s Snapshot) Value(name string) (float64, bool) {
	v, ok := s[name]
	return v, ok
}

// Get returns the named indicator or fallback when absent.
func (s Snapshot) Get(name string, fallback float64) float64 {
	if v, ok := s[name]; ok {
		return v
	}
	return fallback
}

// Has reports whether every named indicator is present.
func (s Snapshot) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := s[name]; !ok {
			return false
		}
	}
	return true
}

// IndicatorMap is the indicator subset attached to scan result rows.
// Pointer fields marshal as null when the value was absent upstream.
type IndicatorMap struct {
	Open    *float64 `json:"open"`
	Close   *float64 `json:"close"`
	SMA20   *float64 `json:"SMA20"`
	BBUpper *float64 `json:"BB_upper"`
	BBLower *float64 `json:"BB_lower"`
	EMA50   *float64 `json:"EMA50,omitempty"`
	RSI     *float64 `json:"RSI,omitempty"`
	Volume  *float64 `json:"volume"`
}

// Row is a single scan result for one symbol.
type Row struct {
	Symbol        string       `json:"symbol"`
	ChangePercent float64      `json:"changePercent"`
	Indicators    IndicatorMap `json:"indicators"`
}

// MultiRow is a multi-timeframe percent-change result for one symbol.
type MultiRow struct {
	Symbol         string              `json:"symbol"`
	Changes        map[string]*float64 `json:"changes"`
	BaseIndicators IndicatorMap        `json:"base_indicators"`
}

// Breakout is a volume-breakout scan result.
type Breakout struct {
	Symbol         string               `json:"symbol"`
	ChangePercent  float64              `json:"changePercent"`
	VolumeRatio    float64              `json:"volume_ratio"`
	VolumeStrength float64              `json:"volume_strength"`
	CurrentVolume  float64              `json:"current_volume"`
	BreakoutType   string               `json:"breakout_type"`
	Indicators     BreakoutIndicatorMap `json:"indicators"`
	// Set by the smart volume scanner only.
	Recommendation string `json:"trading_recommendation,omitempty"`
}

// BreakoutIndicatorMap is the indicator subset attached to breakout rows.
type BreakoutIndicatorMap struct {
	Close   float64 `json:"close"`
	RSI     float64 `json:"RSI"`
	BBUpper float64 `json:"BB_upper"`
	BBLower float64 `json:"BB_lower"`
	Volume  float64 `json:"volume"`
}

// PatternCoin is a consecutive-candle pattern scan result.
type PatternCoin struct {
	Symbol          string          `json:"symbol"`
	Price           float64         `json:"price"`
	CurrentChange   float64         `json:"current_change"`
	CandleBodyRatio float64         `json:"candle_body_ratio"`
	PatternStrength int             `json:"pattern_strength"`
	Volume          float64         `json:"volume"`
	BollingerRating int             `json:"bollinger_rating"`
	RSI             float64         `json:"rsi"`
	PriceLevels     PriceLevels     `json:"price_levels"`
	MomentumSignals MomentumSignals `json:"momentum_signals"`
}

// PriceLevels holds the OHLC of the current candle.
type PriceLevels struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// MomentumSignals holds boolean trend/volume flags for a pattern row.
type MomentumSignals struct {
	AboveSMA20   bool `json:"above_sma20"`
	AboveEMA50   bool `json:"above_ema50"`
	StrongVolume bool `json:"strong_volume"`
}

// PatternScore is the outcome of the single-snapshot candle heuristic.
type PatternScore struct {
	Detected    bool     `json:"detected"`
	Score       int      `json:"score"`
	Details     []string `json:"details,omitempty"`
	Price       float64  `json:"price"`
	TotalChange float64  `json:"total_change"`
	BodyRatio   float64  `json:"body_ratio"`
	Volume      float64  `json:"volume"`
}

// AdvancedPattern is an advanced candle pattern scan result.
type AdvancedPattern struct {
	Symbol            string            `json:"symbol"`
	PatternScore      int               `json:"pattern_score"`
	PatternDetails    []string          `json:"pattern_details"`
	CurrentPrice      float64           `json:"current_price"`
	TotalChange       float64           `json:"total_change"`
	Volume            float64           `json:"volume"`
	BollingerRating   int               `json:"bollinger_rating"`
	TechnicalStrength TechnicalStrength `json:"technical_strength"`
}

// TechnicalStrength summarizes momentum for an advanced pattern row.
type TechnicalStrength struct {
	RSI         float64 `json:"rsi"`
	Momentum    string  `json:"momentum"`
	VolumeTrend string  `json:"volume_trend"`
}
