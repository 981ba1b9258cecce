package domain

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknownTheme         Code = "UNKNOWN_THEME"
	CodeThumbnailUnavailable Code = "THUMBNAIL_UNAVAILABLE"
	CodePaletteUnavailable   Code = "PALETTE_UNAVAILABLE"
	CodeCompositionFailure   Code = "COMPOSITION_FAILURE"
	CodeInvalidInput         Code = "INVALID_INPUT"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its code.
var (
	ErrUnknownTheme         = &Error{Code: CodeUnknownTheme, Message: "unknown theme"}
	ErrThumbnailUnavailable = &Error{Code: CodeThumbnailUnavailable, Message: "thumbnail unavailable"}
	ErrPaletteUnavailable   = &Error{Code: CodePaletteUnavailable, Message: "palette unavailable"}
	ErrCompositionFailure   = &Error{Code: CodeCompositionFailure, Message: "composition failed"}
	ErrInvalidInput         = &Error{Code: CodeInvalidInput, Message: "invalid input"}
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError creates an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error wrapping cause.
func WrapError(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the code from err, or "" if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
