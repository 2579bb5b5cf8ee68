// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown          = "UNKNOWN_ERROR"
	CodeUnloaded         = "UNLOADED"
	CodeInvalidEvent     = "INVALID_EVENT"
	CodeRegionUnresolved = "REGION_UNRESOLVED"
	CodeFileUnresolvable = "FILE_UNRESOLVABLE"
	CodeDownloadError    = "DOWNLOAD_ERROR"
	CodeParseError       = "PARSE_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeConfigError      = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	// ErrUnloaded is reported when a query runs before any call graph was loaded.
	ErrUnloaded = New(CodeUnloaded, "no profile loaded")
	// ErrInvalidEvent is reported when the requested event is not in the loaded set.
	ErrInvalidEvent = New(CodeInvalidEvent, "invalid event")
	// ErrRegionUnresolved is reported when a cursor or selection maps to no region.
	ErrRegionUnresolved = New(CodeRegionUnresolved, "region unresolved")
	// ErrFileUnresolvable is reported when the current file has no on-disk path.
	ErrFileUnresolvable = New(CodeFileUnresolvable, "file has no canonical path")

	ErrDownloadError = New(CodeDownloadError, "download error")
	ErrParseError    = New(CodeParseError, "parse error")
	ErrInvalidInput  = New(CodeInvalidInput, "invalid input")
	ErrNotFound      = New(CodeNotFound, "resource not found")
	ErrConfigError   = New(CodeConfigError, "configuration error")
)

// IsUnloaded checks if the error is an unloaded-profile error.
func IsUnloaded(err error) bool {
	return errors.Is(err, ErrUnloaded)
}

// IsInvalidEvent checks if the error is an invalid event error.
func IsInvalidEvent(err error) bool {
	return errors.Is(err, ErrInvalidEvent)
}

// IsRegionUnresolved checks if the error is a region resolution error.
func IsRegionUnresolved(err error) bool {
	return errors.Is(err, ErrRegionUnresolved)
}

// IsFileUnresolvable checks if the error is a file resolution error.
func IsFileUnresolvable(err error) bool {
	return errors.Is(err, ErrFileUnresolvable)
}

// IsPrecondition reports whether err is one of the query precondition failures.
func IsPrecondition(err error) bool {
	return IsUnloaded(err) || IsInvalidEvent(err) || IsRegionUnresolved(err) || IsFileUnresolvable(err)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
