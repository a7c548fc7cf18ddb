// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrProviderUnavailable = errors.New("market data provider unavailable")
	ErrModelUnavailable    = errors.New("ml model unavailable")
	ErrEmptyChain          = errors.New("option chain is empty")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrTimeout             = errors.New("operation timed out")
	ErrDataNotFound        = errors.New("data not found")
	ErrDatabaseError       = errors.New("database error")
)

// ValidationError represents a malformed-snapshot or bad-input error.
// Validation failures halt the pipeline before analytics run.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ProviderError represents a failure from a market data provider.
type ProviderError struct {
	Provider string
	Symbol   string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%s] %s: %s: %v", e.Provider, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error [%s] %s: %s", e.Provider, e.Symbol, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, symbol, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// ConfigError represents an invalid configuration value, rejected at
// configuration time rather than at request time.
type ConfigError struct {
	Key     string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s (%v): %s", e.Key, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(key string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Key:     key,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
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
