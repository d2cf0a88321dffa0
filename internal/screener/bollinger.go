package screener

import (
	"context"
	"sort"

	apperrors "github.com/t3rmed/tradingview-mcp/internal/errors"
	"github.com/t3rmed/tradingview-mcp/internal/metrics"
	"github.com/t3rmed/tradingview-mcp/internal/models"
)

// BollingerScan finds symbols whose Bollinger Band width sits below the
// threshold, sorted by percent change descending like the mover scans. It
// samples the first 2*limit symbols of the exchange list in a single
// provider call, so it trades coverage for latency.
func (s *Service) BollingerScan(ctx context.Context, exchange, timeframe string, bbwThreshold float64, limit int) ([]models.Row, error) {
	exchange = SanitizeExchange(exchange, "kucoin")
	timeframe = SanitizeTimeframe(timeframe, "4h")
	limit = ClampInt(limit, 1, 100)

	symbols := s.symbols.LoadSymbols(exchange)
	if len(symbols) == 0 {
		return nil, apperrors.NewScanError("bollinger_scan", exchange, apperrors.ErrNoSymbols)
	}
	if sample := limit * 2; len(symbols) > sample {
		symbols = symbols[:sample]
	}

	snapshots, err := s.provider.Analyze(ctx, ScreenerFor(exchange), timeframe, qualifySymbols(exchange, symbols))
	if err != nil {
		return nil, apperrors.Wrap(err, "bollinger scan")
	}

	rows := make([]models.Row, 0, len(snapshots))
	var skips []Skip
	for symbol, snap := range snapshots {
		if snap == nil {
			skips = append(skips, Skip{Symbol: symbol, Reason: "no analysis data"})
			continue
		}
		m := metrics.Compute(snap)
		if m == nil || m.BBW == nil {
			skips = append(skips, Skip{Symbol: symbol, Reason: "band width undefined"})
			continue
		}
		if bbw := *m.BBW; bbw >= bbwThreshold || bbw <= 0 {
			skips = append(skips, Skip{Symbol: symbol, Reason: "band width outside threshold"})
			continue
		}
		// The squeeze read is only meaningful on symbols with enough
		// history for the slower indicators.
		if !snap.Has(models.IndEMA50, models.IndRSI) {
			skips = append(skips, Skip{Symbol: symbol, Reason: "missing EMA50/RSI"})
			continue
		}
		if m.Change == nil {
			skips = append(skips, Skip{Symbol: symbol, Reason: "change undefined"})
			continue
		}
		rows = append(rows, models.Row{
			Symbol:        symbol,
			ChangePercent: metrics.Round2(*m.Change),
			Indicators:    indicatorMap(snap),
		})
	}
	s.logSkips("bollinger_scan", skips)

	sort.Slice(rows, func(i, j int) bool { return rows[i].ChangePercent > rows[j].ChangePercent })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
