// Package errors provides structured error types for actgraph.
//
// Every failure the CLI can surface maps to one of a small set of codes:
//   - INVALID_*: bad flags, options or schema content
//   - NOT_FOUND, UNAUTHORIZED, FORBIDDEN: answers from a remote service
//   - NETWORK_ERROR: transport failures and unexpected HTTP statuses
//   - PUBLISH_FAILED: the wiki upload did not go through
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidView, "unknown view %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidView) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidView   Code = "INVALID_VIEW"

	// Schema errors
	ErrCodeInvalidSchema     Code = "INVALID_SCHEMA"
	ErrCodeUnknownObjectType Code = "UNKNOWN_OBJECT_TYPE"

	// Remote service errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNetwork      Code = "NETWORK_ERROR"
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Publishing errors
	ErrCodePublish Code = "PUBLISH_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// Only the outermost *Error is inspected.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// FromStatus maps an HTTP status code returned by a remote service to an
// error code. It returns the empty code for 2xx statuses.
func FromStatus(status int) Code {
	switch {
	case status >= 200 && status < 300:
		return ""
	case status == 401:
		return ErrCodeUnauthorized
	case status == 403:
		return ErrCodeForbidden
	case status == 404:
		return ErrCodeNotFound
	default:
		return ErrCodeNetwork
	}
}
