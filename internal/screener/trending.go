package screener

import (
	"context"
	"sort"

	apperrors "github.com/t3rmed/tradingview-mcp/internal/errors"
	"github.com/t3rmed/tradingview-mcp/internal/metrics"
	"github.com/t3rmed/tradingview-mcp/internal/models"
)

// trendingBatchSize is the number of symbols per provider call when scanning
// a whole exchange for movers.
const trendingBatchSize = 200

// TopGainers returns the symbols with the highest percent change on the
// exchange, best first.
func (s *Service) TopGainers(ctx context.Context, exchange, timeframe string, limit int) ([]models.Row, error) {
	return s.trendingScan(ctx, "top_gainers", exchange, timeframe, nil, ClampInt(limit, 1, 50), false)
}

// TopLosers returns the symbols with the lowest percent change on the
// exchange, worst first.
func (s *Service) TopLosers(ctx context.Context, exchange, timeframe string, limit int) ([]models.Row, error) {
	return s.trendingScan(ctx, "top_losers", exchange, timeframe, nil, ClampInt(limit, 1, 50), true)
}

// RatingFilter returns symbols whose Bollinger rating matches exactly,
// sorted by percent change descending.
func (s *Service) RatingFilter(ctx context.Context, exchange, timeframe string, rating, limit int) ([]models.Row, error) {
	r := ClampInt(rating, -3, 3)
	return s.trendingScan(ctx, "rating_filter", exchange, timeframe, &r, ClampInt(limit, 1, 50), false)
}

// trendingScan is the shared whole-exchange fold behind the mover and
// rating tools: load symbols, fetch in batches, derive metrics per symbol,
// drop anything incomplete, sort by change, truncate.
func (s *Service) trendingScan(ctx context.Context, tool, exchange, timeframe string, rating *int, limit int, ascending bool) ([]models.Row, error) {
	exchange = SanitizeExchange(exchange, "kucoin")
	timeframe = SanitizeTimeframe(timeframe, "15m")

	symbols := s.symbols.LoadSymbols(exchange)
	if len(symbols) == 0 {
		return nil, apperrors.NewScanError(tool, exchange, apperrors.ErrNoSymbols)
	}

	snapshots := s.analyzeBatched(ctx, ScreenerFor(exchange), timeframe, qualifySymbols(exchange, symbols), trendingBatchSize)
	if len(snapshots) == 0 {
		return nil, apperrors.NewScanError(tool, exchange, apperrors.Wrapf(apperrors.ErrNoData, "timeframe %s", timeframe))
	}

	rows := make([]models.Row, 0, len(snapshots))
	var skips []Skip
	for symbol, snap := range snapshots {
		row, reason := buildRow(symbol, snap, rating)
		if reason != "" {
			skips = append(skips, Skip{Symbol: symbol, Reason: reason})
			continue
		}
		rows = append(rows, *row)
	}
	s.logSkips(tool, skips)

	sort.Slice(rows, func(i, j int) bool {
		if ascending {
			return rows[i].ChangePercent < rows[j].ChangePercent
		}
		return rows[i].ChangePercent > rows[j].ChangePercent
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// buildRow derives one result row, or a non-empty skip reason when the
// snapshot cannot produce a complete row.
func buildRow(symbol string, snap models.Snapshot, rating *int) (*models.Row, string) {
	if snap == nil {
		return nil, "no analysis data"
	}
	m := metrics.Compute(snap)
	if m == nil {
		return nil, "no close price"
	}
	if m.Change == nil {
		return nil, "change undefined"
	}
	if m.BBW == nil {
		return nil, "band width undefined"
	}
	if rating != nil && m.Rating != *rating {
		return nil, "rating mismatch"
	}

	return &models.Row{
		Symbol:        symbol,
		ChangePercent: metrics.Round2(*m.Change),
		Indicators:    indicatorMap(snap),
	}, ""
}

// indicatorMap copies the reported indicator subset out of a snapshot.
// Absent indicators stay nil so they serialize as null.
func indicatorMap(snap models.Snapshot) models.IndicatorMap {
	return models.IndicatorMap{
		Open:    snapPtr(snap, models.IndOpen),
		Close:   snapPtr(snap, models.IndClose),
		SMA20:   snapPtr(snap, models.IndSMA20),
		BBUpper: snapPtr(snap, models.IndBBUpper),
		BBLower: snapPtr(snap, models.IndBBLower),
		EMA50:   snapPtr(snap, models.IndEMA50),
		RSI:     snapPtr(snap, models.IndRSI),
		Volume:  snapPtr(snap, models.IndVolume),
	}
}

func snapPtr(snap models.Snapshot, name string) *float64 {
	if v, ok := snap.Value(name); ok {
		return &v
	}
	return nil
}
