package tradingview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/t3rmed/tradingview-mcp/internal/errors"
	"github.com/t3rmed/tradingview-mcp/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL(srv.URL, 5*time.Second, zerolog.Nop())
}

func scanPayload(rows ...scanRow) string {
	payload, _ := json.Marshal(scanResponse{TotalCount: len(rows), Data: rows})
	return string(payload)
}

func floats(values ...float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

func TestAnalyzeDecodesSnapshot(t *testing.T) {
	var gotPath string
	var gotBody scanRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatal(err)
		}
		values := floats(100, 104, 106, 99, 12000, 100, 110, 90, 98, 95, 61, 0.5, 0.3, 25, 70, 65)
		fmt.Fprint(w, scanPayload(scanRow{Symbol: "KUCOIN:BTCUSDT", Values: values}))
	})

	snapshots, err := client.Analyze(context.Background(), "crypto", "15m", []string{"KUCOIN:BTCUSDT"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if gotPath != "/crypto/scan" {
		t.Errorf("request path = %q, want /crypto/scan", gotPath)
	}
	if gotBody.Symbols == nil || len(gotBody.Symbols.Tickers) != 1 {
		t.Fatalf("request tickers = %+v, want one ticker", gotBody.Symbols)
	}
	// 15m requests must suffix every column with the resolution.
	for _, col := range gotBody.Columns {
		if !strings.HasSuffix(col, "|15") {
			t.Errorf("column %q missing |15 suffix", col)
		}
	}

	snap := snapshots["KUCOIN:BTCUSDT"]
	if snap == nil {
		t.Fatal("snapshot missing")
	}
	// Canonical names, no suffix, on the decoded side.
	if got := snap.Get(models.IndClose, 0); got != 104 {
		t.Errorf("close = %v, want 104", got)
	}
	if got := snap.Get(models.IndRSI, 0); got != 61 {
		t.Errorf("RSI = %v, want 61", got)
	}
}

func TestAnalyzeDailyHasNoSuffix(t *testing.T) {
	var gotBody scanRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, scanPayload())
	})

	if _, err := client.Analyze(context.Background(), "crypto", "1D", []string{"KUCOIN:BTCUSDT"}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for _, col := range gotBody.Columns {
		if strings.Contains(col, "|") {
			t.Errorf("daily column %q should carry no suffix", col)
		}
	}
}

func TestAnalyzeAllNullRow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, scanPayload(scanRow{Symbol: "KUCOIN:DEADUSDT", Values: make([]*float64, 16)}))
	})

	snapshots, err := client.Analyze(context.Background(), "crypto", "15m", []string{"KUCOIN:DEADUSDT"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	snap, present := snapshots["KUCOIN:DEADUSDT"]
	if !present {
		t.Fatal("all-null symbol should still be present in the result")
	}
	if snap != nil {
		t.Errorf("all-null snapshot = %v, want nil", snap)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Analyze(context.Background(), "crypto", "15m", []string{"KUCOIN:BTCUSDT"})
	if !apperrors.Is(err, apperrors.ErrRateLimited) {
		t.Errorf("Analyze() error = %v, want ErrRateLimited", err)
	}
}

func TestAnalyzeServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Analyze(context.Background(), "crypto", "15m", []string{"KUCOIN:BTCUSDT"})
	if err == nil {
		t.Fatal("Analyze() should fail on a 500")
	}
	var provErr *apperrors.ProviderError
	if !apperrors.As(err, &provErr) {
		t.Errorf("Analyze() error = %T, want *ProviderError", err)
	}
}

func TestAnalyzeEmptySymbolList(t *testing.T) {
	client := NewClientWithBaseURL("http://unreachable.invalid", time.Second, zerolog.Nop())

	snapshots, err := client.Analyze(context.Background(), "crypto", "15m", nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(snapshots) != 0 {
		t.Errorf("Analyze() = %v, want empty map", snapshots)
	}
}

func TestRowsQueryShape(t *testing.T) {
	var gotBody scanRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, scanPayload(
			scanRow{Symbol: "KUCOIN:BTCUSDT", Values: []*float64{floats(100)[0], nil}},
		))
	})

	rows, err := client.Rows(context.Background(), TableRequest{
		Columns:  []string{"open|240", "close|240"},
		Exchange: "KUCOIN",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}

	if len(gotBody.Markets) != 1 || gotBody.Markets[0] != "crypto" {
		t.Errorf("markets = %v, want [crypto]", gotBody.Markets)
	}
	if len(gotBody.Filter) != 1 || gotBody.Filter[0].Left != "exchange" || gotBody.Filter[0].Operation != "equal" {
		t.Errorf("filter = %+v, want exchange equal filter", gotBody.Filter)
	}
	if len(gotBody.Range) != 2 || gotBody.Range[0] != 0 || gotBody.Range[1] != 10 {
		t.Errorf("range = %v, want [0 10]", gotBody.Range)
	}

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Ticker != "KUCOIN:BTCUSDT" {
		t.Errorf("ticker = %q", row.Ticker)
	}
	if v := row.Values["open|240"]; v == nil || *v != 100 {
		t.Errorf("open|240 = %v, want 100", v)
	}
	// Null cells must stay nil so percent-change math can refuse them.
	if v := row.Values["close|240"]; v != nil {
		t.Errorf("close|240 = %v, want nil", v)
	}
}

func TestResolution(t *testing.T) {
	cases := map[string]string{"5m": "5", "15m": "15", "1h": "60", "4h": "240", "1D": "1D", "bogus": ""}
	for in, want := range cases {
		if got := Resolution(in); got != want {
			t.Errorf("Resolution(%q) = %q, want %q", in, got, want)
		}
	}
}
