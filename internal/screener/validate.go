// Package screener implements the scan, filter, and sort tools behind the
// MCP tool surface.
package screener

import "strings"

// AllowedTimeframes is the fixed set of interval codes the provider accepts.
var AllowedTimeframes = map[string]bool{
	"5m":  true,
	"15m": true,
	"1h":  true,
	"4h":  true,
	"1D":  true,
	"1W":  true,
	"1M":  true,
}

// ExchangeScreener maps a supported exchange code to the provider's
// screener category.
var ExchangeScreener = map[string]string{
	"all":      "crypto",
	"huobi":    "crypto",
	"kucoin":   "crypto",
	"coinbase": "crypto",
	"gateio":   "crypto",
	"binance":  "crypto",
	"bitfinex": "crypto",
	"bybit":    "crypto",
	"okx":      "crypto",
	"bist":     "turkey",
	"nasdaq":   "america",
}

// SanitizeTimeframe returns tf trimmed when it is an allowed interval code,
// otherwise the default. Empty input means "use default", never an error.
func SanitizeTimeframe(tf, fallback string) string {
	if tf == "" {
		return fallback
	}
	trimmed := strings.TrimSpace(tf)
	if AllowedTimeframes[trimmed] {
		return trimmed
	}
	return fallback
}

// SanitizeExchange returns ex trimmed and lower-cased when it is a supported
// exchange code, otherwise the default.
func SanitizeExchange(ex, fallback string) string {
	if ex == "" {
		return fallback
	}
	normalized := strings.ToLower(strings.TrimSpace(ex))
	if _, ok := ExchangeScreener[normalized]; ok {
		return normalized
	}
	return fallback
}

// ScreenerFor returns the provider screener category for an exchange code,
// defaulting to "crypto" for unknown exchanges.
func ScreenerFor(exchange string) string {
	if s, ok := ExchangeScreener[exchange]; ok {
		return s
	}
	return "crypto"
}

// ClampInt clamps v into [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat clamps v into [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
