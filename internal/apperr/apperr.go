// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrLocked    = errors.New("invoice is locked and cannot be edited")
)

// ValidationError is a recoverable input problem. Failures lists every
// individual check that failed, when more than one applies.
type ValidationError struct {
	Field    string
	Message  string
	Failures []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Failures) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Failures, "; "))
		b.WriteString(")")
	}
	return b.String()
}

// Validation builds a single-field ValidationError.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ReferentialError reports a reference to an entity that does not exist, or
// an operation that would leave dangling references behind.
type ReferentialError struct {
	Entity  string
	ID      string
	Message string
}

func (e *ReferentialError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Message)
	}
	return fmt.Sprintf("%s %s does not exist", e.Entity, e.ID)
}

// MissingVendor is the common ReferentialError for invoices.
func MissingVendor(id string) *ReferentialError {
	return &ReferentialError{Entity: "vendor", ID: id}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsReferential reports whether err wraps a *ReferentialError.
func IsReferential(err error) bool {
	var r *ReferentialError
	return errors.As(err, &r)
}
