package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors used across all layers.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrTransport    = errors.New("transport error")

	// ErrSuperseded marks a completion discarded because a newer operation
	// of the same kind was issued while it was in flight.
	ErrSuperseded = errors.New("superseded by a newer operation")
)

// NonFieldKey is the field name used for errors that are not tied to an input.
const NonFieldKey = "non_field_errors"

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Fields groups messages by field name, preserving message order per field.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(e.Errors))
	for _, fe := range e.Errors {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// ValidationErrorFromMap builds a ValidationError with fields in sorted order.
func ValidationErrorFromMap(fields map[string][]string) *ValidationError {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []FieldError
	for _, k := range keys {
		for _, msg := range fields[k] {
			errs = append(errs, FieldError{Field: k, Message: msg})
		}
	}
	return &ValidationError{Errors: errs}
}

// APIError is a failure reported by (or while talking to) the remote service.
// Kind is one of the sentinel errors above.
type APIError struct {
	Op      string
	Status  int
	Message string
	Kind    error
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: %d: %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *APIError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Message returns the short human-readable text for err, or fallback when
// err carries no server-reported message.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.Message != "" {
		return opErr.Message
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) && len(vErr.Errors) > 0 {
		return vErr.Errors[0].Message
	}

	return fallback
}

// OperationError is the failure of a session operation: the short message
// shown to the user, the underlying cause and, when available, field errors.
type OperationError struct {
	Op      string
	Message string
	Err     error
	Fields  *ValidationError
}

func (e *OperationError) Error() string {
	return e.Op + ": " + e.Message
}

func (e *OperationError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Fields != nil {
		errs = append(errs, e.Fields)
	}
	return errs
}

// FieldErrors returns the field-keyed messages, or nil when there are none.
func (e *OperationError) FieldErrors() map[string][]string {
	if e.Fields == nil {
		return nil
	}
	return e.Fields.Fields()
}
