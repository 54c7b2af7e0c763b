// Package errors defines the coded errors gilt returns and how they map to
// overlays and process exit statuses.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Overlay run errors
	ErrCheckout    ErrorCode = "CHECKOUT"
	ErrMaterialize ErrorCode = "MATERIALIZE"
	ErrLock        ErrorCode = "LOCK"
	ErrInterrupted ErrorCode = "INTERRUPTED"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// Process exit statuses
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// GiltError is a coded error. Overlay is set once the error has left the
// per-overlay loop and names the manifest entry that failed.
type GiltError struct {
	Code    ErrorCode
	Message string
	Overlay string
	Details map[string]interface{}
	Wrapped error
}

// Error renders "[CODE] overlay "name": message: cause". Codes of wrapped
// GiltErrors are not repeated.
func (e *GiltError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.describe())
}

func (e *GiltError) describe() string {
	var parts []string
	if e.Overlay != "" {
		parts = append(parts, fmt.Sprintf("overlay %q", e.Overlay))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Wrapped != nil {
		if inner, ok := e.Wrapped.(*GiltError); ok {
			parts = append(parts, inner.describe())
		} else {
			parts = append(parts, e.Wrapped.Error())
		}
	}
	return strings.Join(parts, ": ")
}

// Unwrap implements the errors.Unwrap interface
func (e *GiltError) Unwrap() error {
	return e.Wrapped
}

// Is matches any GiltError with the same code
func (e *GiltError) Is(target error) bool {
	var targetErr *GiltError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new GiltError with the given code and message
func New(code ErrorCode, message string) *GiltError {
	return &GiltError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new GiltError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *GiltError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a GiltError. Wrapping nil returns nil.
func Wrap(err error, code ErrorCode, message string) *GiltError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *GiltError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *GiltError) WithDetail(key string, value interface{}) *GiltError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithOverlay attributes err to overlay. A GiltError keeps its code and is
// annotated in place of being wrapped again; any other error is wrapped
// with fallback.
func WithOverlay(err error, overlay string, fallback ErrorCode) *GiltError {
	if err == nil {
		return nil
	}

	if ge, ok := err.(*GiltError); ok && ge.Overlay == "" {
		annotated := *ge
		annotated.Details = make(map[string]interface{}, len(ge.Details)+1)
		for k, v := range ge.Details {
			annotated.Details[k] = v
		}
		annotated.Overlay = overlay
		return annotated.WithDetail("overlay", overlay)
	}

	code := GetErrorCode(err)
	if code == ErrUnknown {
		code = fallback
	}
	e := Wrap(err, code, "")
	e.Overlay = overlay
	return e.WithDetail("overlay", overlay)
}

// FromContext returns an INTERRUPTED error when ctx is done, nil otherwise
func FromContext(ctx context.Context, message string) *GiltError {
	if ctx.Err() == nil {
		return nil
	}
	return Wrap(ctx.Err(), ErrInterrupted, message)
}

// IsErrorCode checks the outermost GiltError of err for code
func IsErrorCode(err error, code ErrorCode) bool {
	var giltErr *GiltError
	if errors.As(err, &giltErr) {
		return giltErr.Code == code
	}
	return false
}

// HasCode reports whether any GiltError in the chain of err carries code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if ge, ok := err.(*GiltError); ok && ge.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a GiltError
func GetErrorCode(err error) ErrorCode {
	var giltErr *GiltError
	if errors.As(err, &giltErr) {
		return giltErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a GiltError
func GetErrorDetails(err error) map[string]interface{} {
	var giltErr *GiltError
	if errors.As(err, &giltErr) {
		return giltErr.Details
	}
	return nil
}

// OverlayOf returns the overlay err is attributed to, or ""
func OverlayOf(err error) string {
	for err != nil {
		if ge, ok := err.(*GiltError); ok && ge.Overlay != "" {
			return ge.Overlay
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// ExitStatus maps err to the status gilt exits with: ExitInterrupted when
// an interruption is anywhere in the chain, ExitFailure for other errors.
func ExitStatus(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case HasCode(err, ErrInterrupted):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}
