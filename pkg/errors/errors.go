// Package errors provides structured error types for the saferoute engine.
//
// Every error raised by the scoring and routing layers is an [*Error] carrying
// a machine-readable [Code], the operation that failed, and a message naming
// the offending identifiers (edge id, node id, mode, ...).
//
// # Error Codes
//
//   - CONFIGURATION: unknown mode or time label, malformed profile, invalid caps.
//     Indicates a programming or configuration mistake; never retried.
//   - NO_PATH: source and target are not connected under the current constraints.
//     Callers may relax constraints (forbidden nodes) and retry.
//   - BROKEN_PATH: a node sequence references a hop with no connecting edge.
//     Indicates inconsistent upstream graph construction.
//   - NOT_FOUND: an unknown node or edge identifier.
//   - INVALID_INPUT: malformed documents at the loading boundary.
//
// Malformed individual attribute values are never errors; they are clamped or
// defaulted and reported through diagnostics instead.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "safety.ComputeWeight", "unknown mode %q", mode)
//	if errors.Is(err, errors.ErrCodeNoPath) {
//	    // relax constraints and retry
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the engine's failure categories.
const (
	ErrCodeConfiguration Code = "CONFIGURATION"
	ErrCodeNoPath        Code = "NO_PATH"
	ErrCodeBrokenPath    Code = "BROKEN_PATH"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, the failing operation and an
// optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Op      string // Operation that failed, e.g. "routing.ShortestPath"
	Message string // Human-readable message naming the offending identifiers
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := string(e.Code)
	if e.Op != "" {
		prefix += ": " + e.Op
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code, operation and formatted message.
func New(code Code, op, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, op string, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Configuration reports an unknown mode, malformed profile or invalid caps.
func Configuration(op, format string, args ...any) *Error {
	return New(ErrCodeConfiguration, op, format, args...)
}

// NoPath reports that target is unreachable from source.
func NoPath(op, source, target string) *Error {
	return New(ErrCodeNoPath, op, "no path from %q to %q", source, target)
}

// BrokenPath reports a hop from -> to with no connecting edge.
func BrokenPath(op, from, to string) *Error {
	return New(ErrCodeBrokenPath, op, "no edge between %q and %q", from, to)
}

// NotFound reports an unknown identifier of the given kind ("node", "edge").
func NotFound(op, kind, id string) *Error {
	return New(ErrCodeNotFound, op, "unknown %s %q", kind, id)
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
