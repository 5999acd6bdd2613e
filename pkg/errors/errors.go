// Package errors provides structured error types for mftypes.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the producer and consumer paths
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - CONFIG_* / INVALID_*: configuration and input validation failures
//   - FILESYSTEM: unreadable directories, unwritable files
//   - NETWORK / NOT_FOUND / TIMEOUT: manifest and file fetch failures
//   - SERIALIZATION: malformed manifest documents
//   - COMPILE: declaration compiler failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSpecifier, "remote %q has no @", name)
//	if errors.Is(err, errors.ErrCodeInvalidSpecifier) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeConfigMissing    Code = "CONFIG_MISSING"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidSpecifier Code = "INVALID_SPECIFIER"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Local I/O errors
	ErrCodeFileSystem Code = "FILESYSTEM"

	// Network errors
	ErrCodeNetwork  Code = "NETWORK"
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeTimeout  Code = "TIMEOUT"

	// Payload errors
	ErrCodeSerialization Code = "SERIALIZATION"

	// Toolchain errors
	ErrCodeCompile Code = "COMPILE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL"
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

// Has reports whether any *Error in err's tree carries code. Unlike [Is],
// it looks past the outermost *Error and into joined errors, so a NETWORK
// wrap of per-file NOT_FOUND failures matches both codes.
func Has(err error, code Code) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		if e.Code == code {
			return true
		}
		return Has(e.Cause, code)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if Has(inner, code) {
				return true
			}
		}
		return false
	default:
		return Has(errors.Unwrap(err), code)
	}
}

// Exit codes returned by [ExitCode].
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	ExitNetwork = 3
	ExitCompile = 4
)

// ExitCode maps err onto a process exit status by its outermost code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch GetCode(err) {
	case ErrCodeConfigMissing, ErrCodeInvalidConfig, ErrCodeInvalidSpecifier, ErrCodeInvalidPath:
		return ExitConfig
	case ErrCodeNetwork, ErrCodeNotFound, ErrCodeTimeout:
		return ExitNetwork
	case ErrCodeCompile:
		return ExitCompile
	default:
		return ExitFailure
	}
}
