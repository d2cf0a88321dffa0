package screener

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/t3rmed/tradingview-mcp/internal/logging"
	"github.com/t3rmed/tradingview-mcp/internal/models"
	"github.com/t3rmed/tradingview-mcp/internal/tradingview"
)

// AnalysisProvider fetches indicator snapshots for a set of symbols.
type AnalysisProvider interface {
	Analyze(ctx context.Context, screener, interval string, symbols []string) (map[string]models.Snapshot, error)
}

// TableProvider runs row-oriented screener queries.
type TableProvider interface {
	Rows(ctx context.Context, req tradingview.TableRequest) ([]tradingview.TableRow, error)
}

// SymbolSource supplies per-exchange symbol lists.
type SymbolSource interface {
	LoadSymbols(exchange string) []string
	Exchanges() ([]string, error)
}

// Skip records one symbol dropped during a scan and why. Scans fold over
// their symbol set collecting (rows, skips); a skip never aborts the scan.
type Skip struct {
	Symbol string
	Reason string
}

// Service implements the scan tools. It holds no mutable state: every call
// reloads symbols and re-fetches analysis from scratch.
type Service struct {
	provider AnalysisProvider
	table    TableProvider
	symbols  SymbolSource
	logger   zerolog.Logger
}

// NewService creates a scan service. table may be nil; tools that need the
// tabular query then fall back to their single-snapshot path.
func NewService(provider AnalysisProvider, table TableProvider, symbols SymbolSource, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		table:    table,
		symbols:  symbols,
		logger:   logger,
	}
}

// Exchanges returns the exchange codes known to the symbol source.
func (s *Service) Exchanges() ([]string, error) {
	return s.symbols.Exchanges()
}

// qualifySymbols prefixes raw tickers with the exchange code, as the
// provider expects "EXCHANGE:SYMBOL". Tickers that already carry a prefix
// and the synthetic "all" exchange pass through untouched.
func qualifySymbols(exchange string, symbols []string) []string {
	if exchange == "" || exchange == "all" {
		return symbols
	}
	prefix := strings.ToUpper(exchange) + ":"
	qualified := make([]string, len(symbols))
	for i, sym := range symbols {
		if strings.Contains(sym, ":") {
			qualified[i] = sym
		} else {
			qualified[i] = prefix + sym
		}
	}
	return qualified
}

// analyzeBatched fetches snapshots in fixed-size strictly sequential
// batches. A batch whose call fails is skipped whole: its symbols are
// silently absent from the result, and later batches still run.
func (s *Service) analyzeBatched(ctx context.Context, screener, interval string, symbols []string, batchSize int) map[string]models.Snapshot {
	combined := make(map[string]models.Snapshot, len(symbols))

	for start := 0; start < len(symbols); start += batchSize {
		end := start + batchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		batch, err := s.provider.Analyze(ctx, screener, interval, symbols[start:end])
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("from", start).
				Int("to", end).
				Msg("Batch failed, skipping")
			continue
		}
		for symbol, snap := range batch {
			combined[symbol] = snap
		}
	}

	return combined
}

// logSkips reports dropped symbols at debug level.
func (s *Service) logSkips(tool string, skips []Skip) {
	if len(skips) == 0 {
		return
	}
	logger := logging.WithTool(s.logger, tool)
	for _, skip := range skips {
		symLogger := logging.WithSymbol(logger, skip.Symbol)
		symLogger.Debug().Str("reason", skip.Reason).Msg("Symbol skipped")
	}
	logger.Debug().Int("skipped", len(skips)).Msg("Scan skip summary")
}
