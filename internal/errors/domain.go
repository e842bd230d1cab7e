// Package errors holds the coded domain errors shared by the planning core
// and the CLI helpers that print them.
//
// Check errors by code with errors.Is:
//
//	if errors.Is(err, errors.ErrNoSuitableLabel) {
//	    // skip the subject
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// Code is a machine-readable error category.
type Code string

const (
	CodeConstruction          Code = "CONSTRUCTION"
	CodeNotFound              Code = "NOT_FOUND"
	CodeNoSuitableLabel       Code = "NO_SUITABLE_LABEL"
	CodeDataInsufficient      Code = "DATA_INSUFFICIENT"
	CodeAuthExpired           Code = "AUTH_EXPIRED"
	CodeRequestFailed         Code = "REQUEST_FAILED"
	CodeValidation            Code = "VALIDATION"
	CodeCapabilityUnavailable Code = "CAPABILITY_UNAVAILABLE"
	CodeEmptyPlan             Code = "EMPTY_PLAN"
	CodeLocked                Code = "LOCKED"
)

// Error is a domain error with a code, a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// Sentinel errors for use with errors.Is().
var (
	ErrConstruction          = &Error{Code: CodeConstruction, Message: "invalid action parameters"}
	ErrNotFound              = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUserNotFound          = &Error{Code: CodeNotFound, Message: "user not found"}
	ErrNoSuitableLabel       = &Error{Code: CodeNoSuitableLabel, Message: "no suitable label found"}
	ErrDataInsufficient      = &Error{Code: CodeDataInsufficient, Message: "not enough data"}
	ErrAuthExpired           = &Error{Code: CodeAuthExpired, Message: "session expired"}
	ErrRequestFailed         = &Error{Code: CodeRequestFailed, Message: "request failed"}
	ErrValidation            = &Error{Code: CodeValidation, Message: "validation error"}
	ErrCapabilityUnavailable = &Error{Code: CodeCapabilityUnavailable, Message: "capability unavailable"}
	ErrEmptyPlan             = &Error{Code: CodeEmptyPlan, Message: "no actions selected"}
	ErrLocked                = &Error{Code: CodeLocked, Message: "resource is locked"}
)

// Constructionf creates a construction error with formatted message.
func Constructionf(format string, args ...any) *Error {
	return &Error{Code: CodeConstruction, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// NoSuitableLabelf creates a no-suitable-label error with formatted message.
func NoSuitableLabelf(format string, args ...any) *Error {
	return &Error{Code: CodeNoSuitableLabel, Message: fmt.Sprintf(format, args...)}
}

// DataInsufficientf creates a data-insufficient error with formatted message.
func DataInsufficientf(format string, args ...any) *Error {
	return &Error{Code: CodeDataInsufficient, Message: fmt.Sprintf(format, args...)}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// CapabilityUnavailablef creates a capability error with formatted message.
func CapabilityUnavailablef(format string, args ...any) *Error {
	return &Error{Code: CodeCapabilityUnavailable, Message: fmt.Sprintf(format, args...)}
}

// ExecutionFailure reports one action that failed for one user.
type ExecutionFailure struct {
	UserID int
	Email  string
	Action string
	Err    error
}

func (f *ExecutionFailure) Error() string {
	return fmt.Sprintf("action %s failed for user %d (%s): %v", f.Action, f.UserID, f.Email, f.Err)
}

func (f *ExecutionFailure) Unwrap() error {
	return f.Err
}
