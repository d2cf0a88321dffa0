// Package tradingview implements a client for the TradingView scanner API.
package tradingview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/t3rmed/tradingview-mcp/internal/errors"
	"github.com/t3rmed/tradingview-mcp/internal/models"
	"github.com/t3rmed/tradingview-mcp/pkg/utils"
)

const defaultBaseURL = "https://scanner.tradingview.com"

// analysisColumns is the indicator set requested for every snapshot.
var analysisColumns = []string{
	models.IndOpen,
	models.IndClose,
	models.IndHigh,
	models.IndLow,
	models.IndVolume,
	models.IndSMA20,
	models.IndBBUpper,
	models.IndBBLower,
	models.IndEMA50,
	models.IndEMA200,
	models.IndRSI,
	models.IndMACD,
	models.IndMACDSignal,
	models.IndADX,
	models.IndStochK,
	models.IndStochD,
}

// resolutions maps interval codes to the provider's column-suffix notation.
// Daily columns carry no suffix.
var resolutions = map[string]string{
	"5m":  "5",
	"15m": "15",
	"1h":  "60",
	"4h":  "240",
	"1D":  "1D",
	"1W":  "1W",
	"1M":  "1M",
}

// Resolution returns the provider resolution code for an interval, or ""
// when the interval is unknown.
func Resolution(interval string) string {
	return resolutions[interval]
}

// columnSuffix returns the "|res" suffix appended to column names for
// non-daily intervals.
func columnSuffix(interval string) string {
	res, ok := resolutions[interval]
	if !ok || res == "1D" {
		return ""
	}
	return "|" + res
}

// Client calls the TradingView scanner endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retry      utils.RetryConfig
	logger     zerolog.Logger
}

// NewClient creates a client with the given per-request timeout.
func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		retry:      utils.DefaultRetryConfig(),
		logger:     logger,
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
// Used by tests.
func NewClientWithBaseURL(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	c := NewClient(timeout, logger)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

type scanSymbols struct {
	Tickers []string `json:"tickers"`
	Query   struct {
		Types []string `json:"types"`
	} `json:"query"`
}

type scanFilter struct {
	Left      string      `json:"left"`
	Operation string      `json:"operation"`
	Right     interface{} `json:"right"`
}

type scanRequest struct {
	Symbols *scanSymbols `json:"symbols,omitempty"`
	Markets []string     `json:"markets,omitempty"`
	Filter  []scanFilter `json:"filter,omitempty"`
	Columns []string     `json:"columns"`
	Range   []int        `json:"range,omitempty"`
}

type scanRow struct {
	Symbol string     `json:"s"`
	Values []*float64 `json:"d"`
}

type scanResponse struct {
	TotalCount int       `json:"totalCount"`
	Data       []scanRow `json:"data"`
}

// Analyze fetches one indicator snapshot per requested symbol.
//
// Symbols must carry an exchange prefix ("KUCOIN:BTCUSDT"). The result maps
// every returned symbol to its snapshot; a symbol the provider knows but has
// no values for maps to nil, and symbols absent from the response are simply
// missing. One call, no batching: callers split large symbol sets themselves.
func (c *Client) Analyze(ctx context.Context, screener, interval string, symbols []string) (map[string]models.Snapshot, error) {
	if len(symbols) == 0 {
		return map[string]models.Snapshot{}, nil
	}

	suffix := columnSuffix(interval)
	columns := make([]string, len(analysisColumns))
	for i, col := range analysisColumns {
		columns[i] = col + suffix
	}

	reqBody := scanRequest{
		Symbols: &scanSymbols{Tickers: symbols},
		Columns: columns,
	}

	resp, err := c.scan(ctx, screener, reqBody)
	if err != nil {
		return nil, apperrors.NewProviderError(screener, interval, "analysis request failed", err)
	}

	result := make(map[string]models.Snapshot, len(resp.Data))
	for _, row := range resp.Data {
		snap := decodeSnapshot(analysisColumns, row.Values)
		if len(snap) == 0 {
			result[row.Symbol] = nil
			continue
		}
		result[row.Symbol] = snap
	}

	c.logger.Debug().
		Str("screener", screener).
		Str("interval", interval).
		Int("requested", len(symbols)).
		Int("returned", len(result)).
		Msg("Analysis fetched")

	return result, nil
}

// scan posts a request to /{screener}/scan and decodes the response.
// Transient failures are retried with backoff; a rate-limit response is
// permanent, retrying it immediately would only dig the hole deeper.
func (c *Client) scan(ctx context.Context, screener string, reqBody scanRequest) (*scanResponse, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("scanner encode: %w", err)
	}

	var decoded *scanResponse
	err = utils.Retry(ctx, c.retry,
		func(err error) bool { return !apperrors.Is(err, apperrors.ErrRateLimited) },
		func() error {
			var scanErr error
			decoded, scanErr = c.scanOnce(ctx, screener, payload)
			return scanErr
		})
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func (c *Client) scanOnce(ctx context.Context, screener string, payload []byte) (*scanResponse, error) {
	u := fmt.Sprintf("%s/%s/scan", c.baseURL, screener)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(apperrors.ErrTimeout, "scanner fetch")
		}
		return nil, fmt.Errorf("scanner fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scanner read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scanner: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded scanResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("scanner decode: %w", err)
	}
	return &decoded, nil
}

// decodeSnapshot zips column names with row values, dropping nulls so a
// missing indicator reads as absent rather than zero.
func decodeSnapshot(columns []string, values []*float64) models.Snapshot {
	snap := make(models.Snapshot, len(columns))
	for i, col := range columns {
		if i >= len(values) || values[i] == nil {
			continue
		}
		snap[col] = *values[i]
	}
	return snap
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
