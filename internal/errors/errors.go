// Package errors consolidates error definitions for the ivhist pipeline.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - Error wrapping utilities
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Archive / parse errors
	ErrParse        = errors.New("malformed row")
	ErrArchiveEmpty = errors.New("archive has no valid rows")
	ErrNoPayload    = errors.New("archive has no text payload")
	ErrNoDateKey    = errors.New("no date key in archive name")
	ErrDuplicateRow = errors.New("duplicate row for instrument")

	// Store errors
	ErrSchemaMismatch     = errors.New("schema mismatch with established store schema")
	ErrStoreInconsistency = errors.New("partition index and store disagree")
	ErrPartitionExists    = errors.New("partition already committed")
	ErrPartitionNotFound  = errors.New("partition not found")
	ErrPartitionBusy      = errors.New("partition write already in progress")
	ErrWriterClosed       = errors.New("partition writer is closed")
	ErrChecksumMismatch   = errors.New("partition checksum mismatch")

	// Validation errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidDate   = errors.New("invalid trading date")

	// Aggregation errors
	ErrNoSnapshot = errors.New("no instrument snapshot")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsFatal returns true if err must abort the whole run rather than a
// single date. Schema drift and index/store disagreement fall in this
// category: continuing would risk silent corruption.
func IsFatal(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrStoreInconsistency)
}

// IsDateScoped returns true if err is isolated to one trading date and
// must not abort processing of other dates.
func IsDateScoped(err error) bool {
	return errors.Is(err, ErrArchiveEmpty) ||
		errors.Is(err, ErrNoPayload) ||
		errors.Is(err, ErrNoDateKey) ||
		errors.Is(err, ErrDuplicateRow) ||
		errors.Is(err, ErrPartitionExists) ||
		errors.Is(err, ErrPartitionBusy)
}

// IsValidation returns true if err is a configuration/validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidDate)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

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

// ============================================================================
// Error constructors with context
// ============================================================================

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewInvalidValue creates an invalid value error.
func NewInvalidValue(field string, value interface{}, reason string) error {
	return fmt.Errorf("invalid %s '%v': %s: %w", field, value, reason, ErrInvalidConfig)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the first error for errors.Is/As support.
func (v *ValidationErrors) Unwrap() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}
