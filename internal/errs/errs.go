// Package errs defines the error kinds the booking core reports to its callers.
// Services return *Error values; the HTTP layer maps Kind to a status code.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindConflict      Kind = "conflict"
	KindInternal      Kind = "internal"
)

// Codes for the named failures of the booking core.
const (
	CodeInvalidInput           = "invalid_input"
	CodeSelfInterest           = "self_interest"
	CodeDuplicateInterest      = "duplicate_interest"
	CodeNotFound               = "not_found"
	CodeNotFoundOrUnauthorized = "not_found_or_unauthorized"
	CodeAlreadyFinalized       = "already_finalized"
	CodeInvalidTransition      = "invalid_transition"
	CodeStaleInterest          = "stale_interest"
	CodeFinalizeInProgress     = "finalize_in_progress"
	CodeSelfMessage            = "self_message"
	CodeForbidden              = "forbidden"
	CodeInternal               = "internal"
)

// Error is a structured failure: a kind for routing, a code for clients and an optional payload.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail returns a copy of e carrying an extra payload entry.
func (e *Error) WithDetail(key string, value any) *Error {
	cpy := *e
	cpy.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cpy.Details[k] = v
	}
	cpy.Details[key] = value
	return &cpy
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NewValidationError(message string) *Error {
	return New(KindValidation, CodeInvalidInput, message)
}

func NewNotFoundError(message string) *Error {
	return New(KindNotFound, CodeNotFound, message)
}

func NewConflictError(code, message string) *Error {
	return New(KindConflict, code, message)
}

func NewAuthorizationError(message string) *Error {
	return New(KindAuthorization, CodeForbidden, message)
}

// Internal wraps an unexpected storage or runtime failure.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message, Err: err}
}

// SelfInterest is returned when an owner tries to express interest in their own property.
func SelfInterest() *Error {
	return New(KindValidation, CodeSelfInterest, "You cannot buy your own property.")
}

// DuplicateInterest carries the id of the interest the user already holds.
func DuplicateInterest(existingID string) *Error {
	return New(KindConflict, CodeDuplicateInterest, "You have already shown interest in this property.").
		WithDetail("interestId", existingID)
}

// NotFoundOrUnauthorized deliberately does not say which of the two applies.
func NotFoundOrUnauthorized() *Error {
	return New(KindNotFound, CodeNotFoundOrUnauthorized, "Interest record not found or unauthorized.")
}

// AlreadyFinalized carries the id of the interest that currently holds the property.
func AlreadyFinalized(conflictingID string) *Error {
	return New(KindConflict, CodeAlreadyFinalized, "Only one interest can be finalized for this property.").
		WithDetail("interestId", conflictingID)
}

// KindOf returns the kind of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, CodeInternal for anything that is not an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
