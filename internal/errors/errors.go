package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	// ErrConfig covers invalid or missing configuration. Always fatal at startup.
	ErrConfig = "CONFIG"
	// ErrExec covers spawning, waiting on, or capturing an external tool.
	ErrExec = "EXEC"
	// ErrParse covers records and documents that could not be decoded.
	ErrParse = "PARSE"
	// ErrCollect covers collector lifecycle misuse.
	ErrCollect = "COLLECT"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrCollect code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrCollect,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// MissingField reports a required key absent from a decoded document.
func MissingField(document, key string) *Error {
	return &Error{
		Code:    ErrParse,
		Message: fmt.Sprintf("%s is missing required field '%s'", document, key),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// Join combines errors, dropping nils. Returns nil when nothing is left.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Brief renders err on one line for log output: message, then cause, then
// suggestion.
func Brief(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	out := e.Message
	if e.Cause != nil {
		out += ": " + Brief(e.Cause)
	}
	if e.Suggestion != "" {
		out += " (" + e.Suggestion + ")"
	}
	return out
}
