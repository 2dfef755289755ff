// Package errors provides structured error types for graphite.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the interactive session and the batch pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly messages for notifications
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The three codes the interactive session surfaces to the user are:
//   - LOAD_FAILED: the image could not be read or decoded (prior state is kept)
//   - NO_SKETCH: a save was requested before any sketch was computed
//   - WRITE_FAILED: the sketch could not be encoded or written
//
// The remaining codes follow the INVALID_* / NOT_FOUND / INTERNAL_* convention.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoSketch, "no sketch image to save")
//	if errors.Is(err, errors.ErrCodeNoSketch) {
//	    // Tell the user to open an image first
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLoad, origErr, "failed to load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Session errors
	ErrCodeLoad     Code = "LOAD_FAILED"
	ErrCodeNoSketch Code = "NO_SKETCH"
	ErrCodeWrite    Code = "WRITE_FAILED"

	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidIntensity Code = "INVALID_INTENSITY"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// Only the outermost *Error is inspected, so a WRITE_FAILED wrapping an
// INVALID_FORMAT reports WRITE_FAILED.
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
		return e.Message
	}
	return err.Error()
}

// IsLoadError reports whether err is a LOAD_FAILED error.
func IsLoadError(err error) bool { return Is(err, ErrCodeLoad) }

// IsNoSketchError reports whether err is a NO_SKETCH error.
func IsNoSketchError(err error) bool { return Is(err, ErrCodeNoSketch) }

// IsWriteError reports whether err is a WRITE_FAILED error.
func IsWriteError(err error) bool { return Is(err, ErrCodeWrite) }
