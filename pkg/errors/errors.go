package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Base error kinds shared across the bridge, tools and agents.
var (
	// ErrNotFound indicates a named resource (tool, agent, template) is unknown
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate registration
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates invalid arguments
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig indicates missing or invalid configuration; fatal at startup
	ErrConfig = errors.New("configuration error")

	// ErrConnection indicates the data provider subprocess could not be spawned
	// or the session handshake failed
	ErrConnection = errors.New("connection error")

	// ErrSessionClosed indicates a remote call was attempted without an open session
	ErrSessionClosed = errors.New("session closed")

	// ErrInternal indicates an unexpected internal failure
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a backend is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrRateLimitExceeded indicates the local LLM rate limit rejected a request
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Agent output errors

var (
	// ErrNoFinalResponse indicates the agent run ended without a final response
	ErrNoFinalResponse = errors.New("agent did not provide final response")

	// ErrOutputMissing indicates an expected output key was not published to state
	ErrOutputMissing = errors.New("agent output missing")
)

// ValidationError describes one invalid field of a structured value
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets callers match validation failures against ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// MultiError collects several errors
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}
	msgs := make([]string, 0, len(m.Errors))
	for _, err := range m.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("multiple errors (%d): %s", len(m.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes every collected error to errors.Is / errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add appends a non-nil error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if empty
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}
