// Package errors provides structured error types for gitmorph.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the CLI, the HTTP API and the session layer can react to it
// without string matching.
//
// # Error Codes
//
// Codes follow a small naming convention:
//   - INVALID_*, EMPTY_INPUT, NO_COMMITS: malformed commit logs (format errors)
//   - NOT_FOUND: unknown commit hashes or sessions
//   - TRANSITION_IN_FLIGHT: a session refused to start a second transition
//   - REPOSITORY: failures reading a live repository
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "commit %s not found", hash)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // respond 404
//	}
//
//	err := errors.Wrap(errors.ErrCodeRepository, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Format errors raised while parsing commit logs
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeEmptyInput    Code = "EMPTY_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeNoCommits     Code = "NO_COMMITS"

	// Configuration errors
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Lookup errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Session errors
	ErrCodeTransitionInFlight Code = "TRANSITION_IN_FLIGHT"

	// Collaborator errors
	ErrCodeRepository Code = "REPOSITORY"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// coder is implemented by domain error types that are not *Error but still
// carry a code (commitlog.ParseError, for example).
type coder interface {
	ErrorCode() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error, or any error exposing
// ErrorCode(), with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsFormatError reports whether err is one of the commit log format errors.
// Format errors stop the pipeline before anything is laid out.
func IsFormatError(err error) bool {
	switch GetCode(err) {
	case ErrCodeEmptyInput, ErrCodeInvalidFormat, ErrCodeNoCommits:
		return true
	}
	return false
}

// HTTPStatus maps an error to the HTTP status used by the API server.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeEmptyInput, ErrCodeInvalidFormat, ErrCodeNoCommits,
		ErrCodeInvalidConfig, ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeTransitionInFlight:
		return http.StatusConflict
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
