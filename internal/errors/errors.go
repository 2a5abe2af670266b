// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrMalformedSymbol     = errors.New("malformed symbol")
	ErrMissingReturnValue  = errors.New("missing realized P&L percentage")
	ErrChargesRowNotFound  = errors.New("charges row not found")
	ErrZeroNotionalBasis   = errors.New("division undefined: total notional is zero")
	ErrGeometricUndefined  = errors.New("geometric mean undefined: growth factor is negative")
	ErrIncompatiblePeriods = errors.New("tables have incompatible period granularity")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrLedgerFormat        = errors.New("unrecognised ledger format")
	ErrReportNotFound      = errors.New("report not found")
	ErrDatabaseError       = errors.New("database error")
	ErrInputValidation     = errors.New("input validation failed")
)

// LedgerError represents a problem reading a ledger export.
type LedgerError struct {
	Path    string
	Row     int
	Column  string
	Message string
	Err     error
}

func (e *LedgerError) Error() string {
	loc := e.Path
	if e.Row > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Row)
	}
	if e.Column != "" {
		loc = fmt.Sprintf("%s [%s]", loc, e.Column)
	}
	if e.Err != nil {
		return fmt.Sprintf("ledger error %s: %s: %v", loc, e.Message, e.Err)
	}
	return fmt.Sprintf("ledger error %s: %s", loc, e.Message)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError.
func NewLedgerError(path string, row int, column, message string, err error) *LedgerError {
	return &LedgerError{
		Path:    path,
		Row:     row,
		Column:  column,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NettingError carries the inputs of a failed charges netting.
type NettingError struct {
	GrossPct float64
	Charges  float64
	Notional float64
	Err      error
}

func (e *NettingError) Error() string {
	return fmt.Sprintf("netting error (gross: %.4f%%, charges: %.2f, notional: %.2f): %v", e.GrossPct, e.Charges, e.Notional, e.Err)
}

func (e *NettingError) Unwrap() error {
	return e.Err
}

// NewNettingError creates a new NettingError.
func NewNettingError(gross, charges, notional float64, err error) *NettingError {
	return &NettingError{
		GrossPct: gross,
		Charges:  charges,
		Notional: notional,
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
