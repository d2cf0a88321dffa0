// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNoSymbols           = errors.New("no symbols found for exchange")
	ErrNoData              = errors.New("no data found")
	ErrProviderUnavailable = errors.New("market data provider unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrTimeout             = errors.New("operation timed out")
	ErrConfigInvalid       = errors.New("invalid configuration")
)

// ProviderError represents an error from the market-data provider API.
type ProviderError struct {
	Screener string
	Interval string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%s/%s]: %s: %v", e.Screener, e.Interval, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error [%s/%s]: %s", e.Screener, e.Interval, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(screener, interval, message string, err error) *ProviderError {
	return &ProviderError{
		Screener: screener,
		Interval: interval,
		Message:  message,
		Err:      err,
	}
}

// ScanError represents a failure of a whole scan tool invocation.
type ScanError struct {
	Tool     string
	Exchange string
	Err      error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan error [%s] %s: %v", e.Tool, e.Exchange, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// NewScanError creates a new ScanError.
func NewScanError(tool, exchange string, err error) *ScanError {
	return &ScanError{
		Tool:     tool,
		Exchange: exchange,
		Err:      err,
	}
}

// DataError represents a data-related error for a single symbol.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
