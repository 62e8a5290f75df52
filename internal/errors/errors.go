// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrDivisionUndefined = errors.New("division undefined")
	ErrPersistence       = errors.New("persistence failure")
	ErrDataUnavailable   = errors.New("data unavailable")
)

// InputError reports a malformed numeric input to the signal engine,
// e.g. a NaN or infinite rate. It carries the operation and offending
// value so the failure can be reconstructed without logs.
type InputError struct {
	Op    string
	Field string
	Value float64
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input [%s]: %s = %v", e.Op, e.Field, e.Value)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// NewInputError creates a new InputError.
func NewInputError(op, field string, value float64) *InputError {
	return &InputError{Op: op, Field: field, Value: value}
}

// ArgumentError reports a meaningless argument to a ledger operation,
// such as a non-positive stop distance.
type ArgumentError struct {
	Op      string
	Name    string
	Value   float64
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument [%s]: %s = %v: %s", e.Op, e.Name, e.Value, e.Message)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// NewArgumentError creates a new ArgumentError.
func NewArgumentError(op, name string, value float64, message string) *ArgumentError {
	return &ArgumentError{Op: op, Name: name, Value: value, Message: message}
}

// DivisionError reports a degenerate computation, such as the total
// return percentage of an account with zero initial capital. It is
// distinguishable from a real zero result.
type DivisionError struct {
	Op      string
	Divisor string
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("division undefined [%s]: %s is zero", e.Op, e.Divisor)
}

func (e *DivisionError) Unwrap() error { return ErrDivisionUndefined }

// NewDivisionError creates a new DivisionError.
func NewDivisionError(op, divisor string) *DivisionError {
	return &DivisionError{Op: op, Divisor: divisor}
}

// PersistenceError reports a failed save, load or archive. A mutation
// that triggered it is still applied in memory; callers must be able to
// tell "applied but not durable" from "rejected".
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure [%s]: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// DataError reports an exhausted data source. It is surfaced only to
// the orchestrator; the signal engine never sees it because the
// provider falls back to configured defaults.
type DataError struct {
	Source string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data unavailable [%s]: %v", e.Source, e.Err)
}

func (e *DataError) Unwrap() error { return ErrDataUnavailable }

// NewDataError creates a new DataError.
func NewDataError(source string, err error) *DataError {
	return &DataError{Source: source, Err: err}
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
