package tradingview

import (
	"context"

	apperrors "github.com/t3rmed/tradingview-mcp/internal/errors"
)

// TableRequest describes a tabular screener query: a market segment, an
// explicit column selection, an optional exchange filter, and a row limit.
type TableRequest struct {
	Market   string
	Columns  []string
	Exchange string
	Limit    int
}

// TableRow is one row of a tabular screener result, keyed by the requested
// column names. Null cells stay nil.
type TableRow struct {
	Ticker string
	Values map[string]*float64
}

// Rows runs a tabular screener query and returns the row-oriented result.
func (c *Client) Rows(ctx context.Context, req TableRequest) ([]TableRow, error) {
	market := req.Market
	if market == "" {
		market = "crypto"
	}

	scanReq := scanRequest{
		Markets: []string{market},
		Columns: req.Columns,
	}
	if req.Exchange != "" {
		scanReq.Filter = []scanFilter{
			{Left: "exchange", Operation: "equal", Right: req.Exchange},
		}
	}
	if req.Limit > 0 {
		scanReq.Range = []int{0, req.Limit}
	}

	resp, err := c.scan(ctx, market, scanReq)
	if err != nil {
		return nil, apperrors.NewProviderError(market, "", "table query failed", err)
	}

	rows := make([]TableRow, 0, len(resp.Data))
	for _, raw := range resp.Data {
		values := make(map[string]*float64, len(req.Columns))
		for i, col := range req.Columns {
			if i < len(raw.Values) {
				values[col] = raw.Values[i]
			}
		}
		rows = append(rows, TableRow{Ticker: raw.Symbol, Values: values})
	}

	c.logger.Debug().
		Str("market", market).
		Str("exchange", req.Exchange).
		Int("rows", len(rows)).
		Msg("Table query fetched")

	return rows, nil
}
