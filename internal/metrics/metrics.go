// Package metrics derives secondary metrics from raw indicator snapshots.
package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/t3rmed/tradingview-mcp/internal/models"
)

// Metrics is the derived record for one symbol snapshot. Pointer fields are
// nil when the underlying inputs were absent or the value is undefined
// (zero open, zero Bollinger midline); undefined never becomes zero or an
// error.
type Metrics struct {
	Price  float64  `json:"price"`
	Open   *float64 `json:"open"`
	Change *float64 `json:"change"`
	BBW    *float64 `json:"bbw"`
	Rating int      `json:"rating"`
	Signal string   `json:"signal"`
}

// Compute derives metrics from a raw snapshot. Returns nil when the snapshot
// is empty or has no close price, since nothing useful can be derived.
func Compute(snap models.Snapshot) *Metrics {
	if snap == nil {
		return nil
	}
	closePrice, ok := snap.Value(models.IndClose)
	if !ok {
		return nil
	}

	m := &Metrics{Price: closePrice}

	if open, ok := snap.Value(models.IndOpen); ok {
		o := open
		m.Open = &o
		m.Change = PercentChange(&o, &closePrice)
	}

	upper, hasUpper := snap.Value(models.IndBBUpper)
	lower, hasLower := snap.Value(models.IndBBLower)
	mid, hasMid := snap.Value(models.IndSMA20)

	if hasUpper && hasLower && hasMid {
		m.BBW = bandWidth(upper, lower, mid)
		m.Rating = bandRating(closePrice, upper, lower, mid)
	}
	m.Signal = SignalLabel(m.Rating)

	return m
}

// PercentChange computes (close-open)/open*100, or nil when either operand
// is absent or open is zero.
func PercentChange(open, close *float64) *float64 {
	if open == nil || close == nil || *open == 0 {
		return nil
	}
	o := decimal.NewFromFloat(*open)
	c := decimal.NewFromFloat(*close)
	change := c.Sub(o).Div(o).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return &change
}

// bandWidth computes the dimensionless Bollinger Band width
// (upper-lower)/midline, or nil when the midline is zero.
func bandWidth(upper, lower, mid float64) *float64 {
	if mid == 0 {
		return nil
	}
	u := decimal.NewFromFloat(upper)
	l := decimal.NewFromFloat(lower)
	m := decimal.NewFromFloat(mid)
	bbw := u.Sub(l).Div(m).InexactFloat64()
	return &bbw
}

// bandRating maps the close position inside the Bollinger channel to a
// buy/sell rating in [-3, 3]. Closes beyond a band read as breakouts, so
// above-upper rates +3 (strong buy) and below-lower -3.
func bandRating(close, upper, lower, mid float64) int {
	switch {
	case close > upper:
		return 3
	case close >= mid+(upper-mid)/2:
		return 2
	case close > mid:
		return 1
	case close < lower:
		return -3
	case close <= mid-(mid-lower)/2:
		return -2
	case close < mid:
		return -1
	default:
		return 0
	}
}

// SignalLabel returns the textual signal for a rating.
func SignalLabel(rating int) string {
	switch rating {
	case 3:
		return "Strong Buy"
	case 2:
		return "Buy"
	case 1:
		return "Weak Buy"
	case -1:
		return "Weak Sell"
	case -2:
		return "Sell"
	case -3:
		return "Strong Sell"
	default:
		return "Neutral"
	}
}

// Round6 rounds a value to six decimal places, the precision used for price
// fields in tool output.
func Round6(v float64) float64 {
	return decimal.NewFromFloat(v).Round(6).InexactFloat64()
}

// Round2 rounds a value to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Round3 rounds a value to three decimal places.
func Round3(v float64) float64 {
	return decimal.NewFromFloat(v).Round(3).InexactFloat64()
}

// Round1 rounds a value to one decimal place.
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
