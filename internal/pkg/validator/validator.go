// Package validator accumulates field-level validation errors for request forms.
package validator

import (
	"regexp"
	"strings"
)

var (
	// EmailRX is a basic email shape check
	EmailRX = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

	// PatronCodeRX matches supplied patron short codes
	PatronCodeRX = regexp.MustCompile(`^[a-z0-9]{2,32}$`)

	// ISBNRX accepts ISBN-10/13 digits with optional hyphens
	ISBNRX = regexp.MustCompile(`^[0-9][0-9-]{8,15}[0-9Xx]$`)
)

// Validator holds a map of field names to their validation error messages.
// A Validator with an empty Errors map is valid.
type Validator struct {
	Errors map[string]string
}

// New creates an empty Validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if no errors were recorded
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records key as failing. The first failure for a field wins.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key only when ok is false
//
//	v.Check(title != "", "title", "must be provided")
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// NotBlank reports whether value has non-space content
func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxChars reports whether value is at most n runes long
func MaxChars(value string, n int) bool {
	return len([]rune(value)) <= n
}

// In returns true if value is present in list
func In(value string, list ...string) bool {
	for _, item := range list {
		if value == item {
			return true
		}
	}
	return false
}

// Matches returns true if value matches rx
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}
