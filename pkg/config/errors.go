package config

import (
	"fmt"
	"strings"
)

// Error code constants for machine-readable error identification
const (
	ErrCodeUnknownField = "unknown_field"
	ErrCodeRequired     = "required"
	ErrCodeType         = "type"
	ErrCodeParse        = "parse"
)

// FieldError describes the failure of a single option field.
type FieldError struct {
	// Field is the option key that failed validation
	Field string `json:"field"`

	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Received is the offending value, when it helps diagnosis
	Received any `json:"received,omitempty"`

	// Expected describes what was expected
	Expected string `json:"expected,omitempty"`
}

// Error implements the error interface
func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationError aggregates every field failure from one Validate call.
type ValidationError struct {
	Errors []*FieldError `json:"errors"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(fe *FieldError) {
	e.Errors = append(e.Errors, fe)
}

// ByField returns the first error recorded for the given option key, or
// nil when the field validated cleanly.
func (e *ValidationError) ByField(field string) *FieldError {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe
		}
	}
	return nil
}

// newUnknownFieldError creates an error for an unrecognized option key
func newUnknownFieldError(field string) *FieldError {
	return &FieldError{
		Field:   field,
		Code:    ErrCodeUnknownField,
		Message: fmt.Sprintf("unknown option %q", field),
	}
}

// newRequiredError creates an error for a missing required option
func newRequiredError(field string) *FieldError {
	return &FieldError{
		Field:    field,
		Code:     ErrCodeRequired,
		Message:  fmt.Sprintf("option %q is required", field),
		Expected: "non-null value",
	}
}

// newTypeError creates an error for a value of the wrong shape
func newTypeError(field, expected string, received any) *FieldError {
	return &FieldError{
		Field:    field,
		Code:     ErrCodeType,
		Message:  fmt.Sprintf("expected %s", expected),
		Received: received,
		Expected: expected,
	}
}

// newParseError creates an error for a well-shaped value that fails
// field-specific parsing
func newParseError(field, message string, received any) *FieldError {
	return &FieldError{
		Field:    field,
		Code:     ErrCodeParse,
		Message:  message,
		Received: received,
	}
}
