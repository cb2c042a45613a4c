// Package errors provides domain-specific errors for the zebra application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain error kinds. Callers match them with
// errors.Is regardless of how many layers wrapped the original failure.
var (
	ErrFrameAlreadyStarted = errors.New("a frame is already started")
	ErrNoFrameStarted      = errors.New("no frame is currently started")
	ErrInvalidTime         = errors.New("invalid time")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrNotFound            = errors.New("not found")
	ErrRemoteUnavailable   = errors.New("remote service unavailable")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeState         ErrorCode = "STATE"
	CodeInvalidTime   ErrorCode = "INVALID_TIME"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeRemote        ErrorCode = "REMOTE"
	CodeConfiguration ErrorCode = "CONFIG"
)

// ZebraError wraps errors with additional context for debugging and handling.
type ZebraError struct {
	Code    ErrorCode
	Message string
	Cause   error

	kind error
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *ZebraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *ZebraError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches one of the domain sentinels.
func (e *ZebraError) Is(target error) bool {
	return e.kind != nil && target == e.kind
}

// NewError creates a new ZebraError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *ZebraError {
	return &ZebraError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// FrameAlreadyStarted signals a start attempt while a frame is active.
func FrameAlreadyStarted(message string) *ZebraError {
	return &ZebraError{Code: CodeState, Message: message, kind: ErrFrameAlreadyStarted}
}

// NoFrameStarted signals a stop or cancel attempt with no active frame.
func NoFrameStarted(message string) *ZebraError {
	return &ZebraError{Code: CodeState, Message: message, kind: ErrNoFrameStarted}
}

// InvalidTime signals a timestamp that violates ordering or future-time rules.
func InvalidTime(format string, args ...interface{}) *ZebraError {
	return &ZebraError{Code: CodeInvalidTime, Message: fmt.Sprintf(format, args...), kind: ErrInvalidTime}
}

// InvalidOperation signals an operation the current data cannot support,
// such as mutating a remote-sourced entity or a non-quarter-hour duration.
func InvalidOperation(format string, args ...interface{}) *ZebraError {
	return &ZebraError{Code: CodeValidation, Message: fmt.Sprintf(format, args...), kind: ErrInvalidOperation}
}

// NotFound signals a lookup that matched nothing.
func NotFound(format string, args ...interface{}) *ZebraError {
	return &ZebraError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...), kind: ErrNotFound}
}

// RemoteUnavailable signals a transport or server failure talking to Zebra.
func RemoteUnavailable(message string, cause error) *ZebraError {
	return &ZebraError{Code: CodeRemote, Message: message, Cause: cause, kind: ErrRemoteUnavailable}
}

// Is reports whether err matches target using errors.Is semantics.
// This is a convenience wrapper around the standard library's errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target and sets target to that error value.
// This is a convenience wrapper around the standard library's errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
