// Package httperr defines the error kinds used across the request pipeline.
// Every error carries an HTTP status code, a message that is safe to return
// to the client and an internal detail that must only ever reach the logs.
package httperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies pipeline failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindOriginNotFound
	KindConnection
	KindPolicyNotFound
	KindImageProcessing
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindOriginNotFound:
		return "origin-not-found"
	case KindConnection:
		return "connection"
	case KindPolicyNotFound:
		return "policy-not-found"
	case KindImageProcessing:
		return "image-processing"
	default:
		return "unknown"
	}
}

// Error is a typed pipeline error. Message is client-safe, Detail is not.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Detail  string
	cause   error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// ClientMessage returns the text that may be sent to the client.
func (e *Error) ClientMessage() string { return e.Message }

// New creates a typed error with an explicit status code.
func New(kind Kind, status int, message, detail string) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Detail: detail}
}

// Validation creates a 400 validation error.
func Validation(message, detail string) *Error {
	return New(KindValidation, http.StatusBadRequest, message, detail)
}

// OriginNotFound creates a 404 for an unresolved mapping or missing origin.
func OriginNotFound(message, detail string) *Error {
	return New(KindOriginNotFound, http.StatusNotFound, message, detail)
}

// OriginInvalid creates a 400 for an origin with broken configuration.
func OriginInvalid(message, detail string) *Error {
	return New(KindOriginNotFound, http.StatusBadRequest, message, detail)
}

// Connection creates an error for origin reachability or content problems.
func Connection(status int, message, detail string) *Error {
	return New(KindConnection, status, message, detail)
}

// PolicyNotFound creates a 404 for an explicitly requested but missing policy.
func PolicyNotFound(message, detail string) *Error {
	return New(KindPolicyNotFound, http.StatusNotFound, message, detail)
}

// ImageProcessing creates an engine failure error.
func ImageProcessing(status int, message, detail string) *Error {
	return New(KindImageProcessing, status, message, detail)
}

// Wrap attaches a cause, keeping kind, status and messages.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.cause = cause
	return &c
}

// FromError returns err as a typed error. Known typed errors pass through
// unmodified, anything else becomes a generic 500 whose original message is
// preserved only in the internal detail.
func FromError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{
		Kind:    KindUnknown,
		Status:  http.StatusInternalServerError,
		Message: "internal server error",
		Detail:  err.Error(),
		cause:   err,
	}
}
