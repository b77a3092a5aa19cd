package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by the services wraps exactly one of these.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnavailable         = errors.New("no available copies")
	ErrDuplicateActiveLoan = errors.New("patron already has an active loan for this book")
	ErrInvalidState        = errors.New("invalid state")
	ErrConflict            = errors.New("concurrent update conflict, please retry")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
)

// Entity errors
var (
	ErrBookNotFound       = fmt.Errorf("book %w", ErrNotFound)
	ErrPatronNotFound     = fmt.Errorf("patron %w", ErrNotFound)
	ErrBorrowNotFound     = fmt.Errorf("borrow %w", ErrNotFound)
	ErrStaffNotFound      = fmt.Errorf("staff user %w", ErrNotFound)
	ErrBookUnavailable    = fmt.Errorf("book: %w", ErrUnavailable)
	ErrAlreadyReturned    = fmt.Errorf("%w: loan already returned", ErrInvalidState)
	ErrBookHasActiveLoans = fmt.Errorf("%w: book has copies on loan", ErrInvalidState)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrAccountDisabled    = fmt.Errorf("%w: account disabled", ErrUnauthorized)
)

// FieldError reports an invalid input field
type FieldError struct {
	Field  string
	Reason string
}

// InvalidInput builds a FieldError for field
func InvalidInput(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

// StoreError wraps an infrastructure failure as ErrStoreUnavailable
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// IsRetryable reports whether the caller may retry the same request
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrStoreUnavailable)
}

// ValidationError carries every invalid field of a form at once
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError wraps field messages collected by a validator
func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
