// Package apperr defines the closed error taxonomy surfaced by the API.
// Validation, access, not-found, and conflict errors are expected control
// flow; anything else is treated as internal and kept opaque to clients.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation          Code = "validation_error"
	CodeAccessDenied        Code = "access_denied"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeRateLimited         Code = "rate_limited"
	CodeInternal            Code = "internal_error"
)

// Error is a machine-readable application error.
type Error struct {
	Code    Code
	Message string
	// Balance carries the current balance on insufficient_balance errors
	// so the client can act without a follow-up fetch.
	Balance *int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func AccessDenied(format string, args ...any) *Error {
	return &Error{Code: CodeAccessDenied, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func InsufficientBalance(balance int) *Error {
	return &Error{
		Code:    CodeInsufficientBalance,
		Message: "insufficient point balance",
		Balance: &balance,
	}
}

func RateLimited(format string, args ...any) *Error {
	return &Error{Code: CodeRateLimited, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the taxonomy code for err, or CodeInternal if err is not
// an application error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
