// Package coinlist loads exchange symbol lists from newline-delimited text files.
package coinlist

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// pathStrategy resolves a candidate file path for an exchange code.
type pathStrategy func(exchange string) string

// Loader resolves and reads {EXCHANGE}.txt symbol files.
//
// Candidate paths are tried in a fixed order and the first file that exists,
// reads cleanly, and yields at least one non-blank line wins. A loader never
// fails: when no candidate qualifies it returns an empty list and the caller
// decides whether that is an error.
type Loader struct {
	strategies []pathStrategy
	dir        string
	logger     zerolog.Logger
}

// NewLoader creates a loader rooted at dir.
//
// Each root directory is tried with the exchange code as given, then
// lower-cased, then upper-cased, so "kucoin" and "KUCOIN" both resolve a
// KUCOIN.txt (or kucoin.txt) file on case-sensitive filesystems. The
// configured directory is searched first, then the same variants relative
// to the executable's directory.
func NewLoader(dir string, logger zerolog.Logger) *Loader {
	execRelative := dir
	if !filepath.IsAbs(dir) {
		if exe, err := os.Executable(); err == nil {
			execRelative = filepath.Join(filepath.Dir(exe), dir)
		}
	}

	var strategies []pathStrategy
	for _, root := range []string{dir, execRelative} {
		root := root
		strategies = append(strategies,
			func(exchange string) string {
				return filepath.Join(root, exchange+".txt")
			},
			func(exchange string) string {
				return filepath.Join(root, strings.ToLower(exchange)+".txt")
			},
			func(exchange string) string {
				return filepath.Join(root, strings.ToUpper(exchange)+".txt")
			},
		)
	}

	return &Loader{
		strategies: strategies,
		dir:        dir,
		logger:     logger,
	}
}

// LoadSymbols returns the symbol list for an exchange, or an empty slice
// when no symbol file could be found or read.
func (l *Loader) LoadSymbols(exchange string) []string {
	for _, strategy := range l.strategies {
		path := strategy(exchange)

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		symbols := parseSymbols(string(data))
		if len(symbols) == 0 {
			continue
		}

		l.logger.Debug().
			Str("exchange", exchange).
			Str("path", path).
			Int("count", len(symbols)).
			Msg("Loaded symbol list")
		return symbols
	}

	l.logger.Debug().Str("exchange", exchange).Msg("No symbol list found")
	return nil
}

// Exchanges returns the exchange codes present in the coinlist directory,
// upper-cased and sorted. An unreadable directory yields an error so the
// caller can fall back to a static list.
func (l *Loader) Exchanges() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	var exchanges []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		exchanges = append(exchanges, strings.ToUpper(strings.TrimSuffix(name, ".txt")))
	}

	sort.Strings(exchanges)
	return exchanges, nil
}

// parseSymbols splits file content into trimmed non-blank lines.
func parseSymbols(content string) []string {
	lines := strings.Split(content, "\n")
	symbols := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			symbols = append(symbols, line)
		}
	}
	return symbols
}
