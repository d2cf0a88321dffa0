// Package logging provides structured logging functionality.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Debug      bool
	DebugFile  string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Debug:      false,
		DebugFile:  "tradingview_mcp_debug.log",
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     14,
	}
}

// NewLogger creates a new logger with the specified configuration.
//
// The console stream always goes to stderr: stdout carries JSON-RPC traffic
// on the stdio transport and must never receive log output. In debug mode a
// rotated debug log file is added as a second sink.
func NewLogger(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	writers = append(writers, consoleWriter)

	if cfg.Debug && cfg.DebugFile != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.DebugFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		}
		writers = append(writers, fileWriter)
	}

	var writer io.Writer
	if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	level := parseLevel(cfg.Level)
	if cfg.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithTool adds a tool name to the logger context.
func WithTool(logger zerolog.Logger, tool string) zerolog.Logger {
	return logger.With().Str("tool", tool).Logger()
}

// WithExchange adds an exchange code to the logger context.
func WithExchange(logger zerolog.Logger, exchange string) zerolog.Logger {
	return logger.With().Str("exchange", exchange).Logger()
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// SafeLog logs a message and never lets a logging failure propagate.
// If the structured logger panics it falls back to a raw stderr write,
// and if even that fails it gives up silently.
func SafeLog(logger zerolog.Logger, level zerolog.Level, msg string) {
	defer func() {
		if r := recover(); r != nil {
			defer func() { _ = recover() }()
			fmt.Fprintf(os.Stderr, "[%s] %s\n", level.String(), msg)
		}
	}()
	logger.WithLevel(level).Msg(msg)
}
