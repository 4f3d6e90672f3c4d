// Package errors defines the typed error taxonomy used across the Flora Gems
// services. Every error that crosses a service boundary carries a Code, which
// maps to an HTTP status and a client-safe public message.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a Code is rendered on the wire. DetailsAllowed gates
// whether WithDetails payloads reach the client response.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, false, "validation failed", true},
	CodeUnauthorized:  {http.StatusUnauthorized, false, "authentication required", false},
	CodeForbidden:     {http.StatusForbidden, false, "access denied", false},
	CodeNotFound:      {http.StatusNotFound, false, "resource not found", false},
	CodeConflict:      {http.StatusConflict, false, "conflict detected", false},
	CodeStateConflict: {http.StatusUnprocessableEntity, false, "state transition disallowed", true},
	CodeRateLimit:     {http.StatusTooManyRequests, false, "rate limit exceeded", false},
	CodeInternal:      {http.StatusInternalServerError, true, "internal server error", false},
	CodeDependency:    {http.StatusServiceUnavailable, true, "dependency unavailable", true},
}

// MetadataFor resolves the wire metadata for a code. Unknown codes fall back
// to the internal-error metadata rather than leaking anything.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the canonical application error. The message is for logs; what the
// client sees comes from the code's Metadata plus optional details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// degrades to New.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets a structured payload for the client. It is only rendered
// when the code's metadata allows details.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the typed *Error from an error chain, or nil when the chain
// contains none.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
