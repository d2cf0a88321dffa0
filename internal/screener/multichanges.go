package screener

import (
	"context"
	"strings"

	apperrors "github.com/t3rmed/tradingview-mcp/internal/errors"
	"github.com/t3rmed/tradingview-mcp/internal/metrics"
	"github.com/t3rmed/tradingview-mcp/internal/models"
	"github.com/t3rmed/tradingview-mcp/internal/tradingview"
)

var defaultMultiTimeframes = []string{"15m", "1h", "4h", "1D"}

// MultiChanges reports percent change per timeframe for exchange symbols in
// one tabular query, plus the Bollinger context of the base timeframe.
// Timeframes with no provider resolution are dropped; when none survive the
// base timeframe alone is used.
func (s *Service) MultiChanges(ctx context.Context, exchange string, timeframes []string, baseTimeframe string, limit int) ([]models.MultiRow, error) {
	if s.table == nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderUnavailable, "multi changes")
	}
	exchange = SanitizeExchange(exchange, "kucoin")
	baseTimeframe = SanitizeTimeframe(baseTimeframe, "4h")

	if len(timeframes) == 0 {
		timeframes = defaultMultiTimeframes
	}
	suffixes := make(map[string]string, len(timeframes))
	for _, tf := range timeframes {
		tf = SanitizeTimeframe(tf, "")
		if res := tradingview.Resolution(tf); res != "" {
			suffixes[tf] = res
		}
	}
	baseRes := tradingview.Resolution(baseTimeframe)
	if baseRes == "" {
		baseRes = "240"
	}
	if len(suffixes) == 0 {
		suffixes[baseTimeframe] = baseRes
	}

	var cols []string
	seen := map[string]bool{}
	add := func(c string) {
		if !seen[c] {
			cols = append(cols, c)
			seen[c] = true
		}
	}
	for _, res := range suffixes {
		add("open|" + res)
		add("close|" + res)
	}
	add("SMA20|" + baseRes)
	add("BB.upper|" + baseRes)
	add("BB.lower|" + baseRes)
	add("volume|" + baseRes)

	rows, err := s.table.Rows(ctx, tradingview.TableRequest{
		Market:   "crypto",
		Columns:  cols,
		Exchange: strings.ToUpper(exchange),
		Limit:    limit,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "multi changes")
	}

	out := make([]models.MultiRow, 0, len(rows))
	for _, row := range rows {
		changes := make(map[string]*float64, len(suffixes))
		for tf, res := range suffixes {
			changes[tf] = metrics.PercentChange(row.Values["open|"+res], row.Values["close|"+res])
		}
		out = append(out, models.MultiRow{
			Symbol:  row.Ticker,
			Changes: changes,
			BaseIndicators: models.IndicatorMap{
				Open:    row.Values["open|"+baseRes],
				Close:   row.Values["close|"+baseRes],
				SMA20:   row.Values["SMA20|"+baseRes],
				BBUpper: row.Values["BB.upper|"+baseRes],
				BBLower: row.Values["BB.lower|"+baseRes],
				Volume:  row.Values["volume|"+baseRes],
			},
		})
	}
	return out, nil
}
