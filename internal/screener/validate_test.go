package screener

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSanitizeTimeframe(t *testing.T) {
	cases := []struct {
		in, fallback, want string
	}{
		{"15m", "1h", "15m"},
		{" 4h ", "1h", "4h"},
		{"", "1h", "1h"},
		{"3h", "1h", "1h"},
		{"1d", "15m", "15m"}, // interval codes are case-sensitive
		{"1D", "15m", "1D"},
	}
	for _, tc := range cases {
		if got := SanitizeTimeframe(tc.in, tc.fallback); got != tc.want {
			t.Errorf("SanitizeTimeframe(%q, %q) = %q, want %q", tc.in, tc.fallback, got, tc.want)
		}
	}
}

func TestSanitizeExchange(t *testing.T) {
	cases := []struct {
		in, fallback, want string
	}{
		{"KUCOIN", "kucoin", "kucoin"},
		{"Binance", "kucoin", "binance"},
		{" bybit ", "kucoin", "bybit"},
		{"", "kucoin", "kucoin"},
		{"mtgox", "kucoin", "kucoin"},
		{"NASDAQ", "kucoin", "nasdaq"},
	}
	for _, tc := range cases {
		if got := SanitizeExchange(tc.in, tc.fallback); got != tc.want {
			t.Errorf("SanitizeExchange(%q, %q) = %q, want %q", tc.in, tc.fallback, got, tc.want)
		}
	}
}

func TestScreenerFor(t *testing.T) {
	if got := ScreenerFor("bist"); got != "turkey" {
		t.Errorf("ScreenerFor(bist) = %q, want turkey", got)
	}
	if got := ScreenerFor("nasdaq"); got != "america" {
		t.Errorf("ScreenerFor(nasdaq) = %q, want america", got)
	}
	if got := ScreenerFor("whatever"); got != "crypto" {
		t.Errorf("ScreenerFor(whatever) = %q, want crypto", got)
	}
}

// Property: sanitizers always return a member of their allowed set (or the
// fallback verbatim), never the raw input.
func TestSanitizePropertyAlwaysAllowed(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("timeframe result is allowed or the fallback", prop.ForAll(
		func(tf string) bool {
			got := SanitizeTimeframe(tf, "15m")
			return AllowedTimeframes[got] || got == "15m"
		},
		gen.AnyString(),
	))

	properties.Property("exchange result is supported or the fallback", prop.ForAll(
		func(ex string) bool {
			got := SanitizeExchange(ex, "kucoin")
			_, ok := ExchangeScreener[got]
			return ok || got == "kucoin"
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Property: clamped values always land inside the bounds, and in-range
// values pass through unchanged.
func TestClampProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ClampInt lands in bounds", prop.ForAll(
		func(v int) bool {
			got := ClampInt(v, 1, 50)
			if got < 1 || got > 50 {
				return false
			}
			if v >= 1 && v <= 50 {
				return got == v
			}
			return true
		},
		gen.Int(),
	))

	properties.Property("ClampFloat lands in bounds", prop.ForAll(
		func(v float64) bool {
			got := ClampFloat(v, 1.5, 10.0)
			if got < 1.5 || got > 10.0 {
				return false
			}
			if v >= 1.5 && v <= 10.0 {
				return got == v
			}
			return true
		},
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}
