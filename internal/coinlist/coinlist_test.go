package coinlist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSymbols(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KUCOIN.txt", "BTCUSDT\nETHUSDT\n\n")

	loader := NewLoader(dir, zerolog.Nop())

	got := loader.LoadSymbols("KUCOIN")
	want := []string{"BTCUSDT", "ETHUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadSymbols(KUCOIN) = %v, want %v", got, want)
	}
}

func TestLoadSymbolsLowercaseFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kucoin.txt", "BTCUSDT\n")

	loader := NewLoader(dir, zerolog.Nop())

	if got := loader.LoadSymbols("KUCOIN"); len(got) != 1 || got[0] != "BTCUSDT" {
		t.Errorf("LoadSymbols(KUCOIN) = %v, want [BTCUSDT]", got)
	}
}

func TestLoadSymbolsUppercaseFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KUCOIN.txt", "BTCUSDT\nETHUSDT\n")

	loader := NewLoader(dir, zerolog.Nop())

	// The sanitized exchange code is lower-cased, while the shipped
	// symbol files use upper-case names. Both spellings must resolve.
	got := loader.LoadSymbols("kucoin")
	want := []string{"BTCUSDT", "ETHUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadSymbols(kucoin) = %v, want %v", got, want)
	}
}

func TestLoadSymbolsTrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "BINANCE.txt", "  BTCUSDT  \n\t\nETHUSDT\n")

	loader := NewLoader(dir, zerolog.Nop())

	got := loader.LoadSymbols("BINANCE")
	want := []string{"BTCUSDT", "ETHUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadSymbols(BINANCE) = %v, want %v", got, want)
	}
}

func TestLoadSymbolsMissingExchange(t *testing.T) {
	loader := NewLoader(t.TempDir(), zerolog.Nop())

	if got := loader.LoadSymbols("NOPE"); len(got) != 0 {
		t.Errorf("LoadSymbols(NOPE) = %v, want empty", got)
	}
}

func TestLoadSymbolsEmptyFileFallsThrough(t *testing.T) {
	dir := t.TempDir()
	// An all-blank file in the primary location must not shadow a usable
	// lower-cased one.
	writeFile(t, dir, "OKX.txt", "\n\n")
	writeFile(t, dir, "okx.txt", "BTCUSDT\n")

	loader := NewLoader(dir, zerolog.Nop())

	if got := loader.LoadSymbols("OKX"); len(got) != 1 || got[0] != "BTCUSDT" {
		t.Errorf("LoadSymbols(OKX) = %v, want [BTCUSDT]", got)
	}
}

func TestExchanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "kucoin.txt", "BTCUSDT\n")
	writeFile(t, dir, "BINANCE.txt", "BTCUSDT\n")
	writeFile(t, dir, "notes.md", "ignored")

	loader := NewLoader(dir, zerolog.Nop())

	got, err := loader.Exchanges()
	if err != nil {
		t.Fatalf("Exchanges() error = %v", err)
	}
	want := []string{"BINANCE", "KUCOIN"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exchanges() = %v, want %v", got, want)
	}
}

func TestExchangesMissingDir(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing"), zerolog.Nop())

	if _, err := loader.Exchanges(); err == nil {
		t.Error("Exchanges() on a missing directory should error")
	}
}
