// Package autherr classifies authentication failures so that transports can
// map them onto status codes without inspecting messages.
package autherr

import (
	"errors"
	"net/http"
)

// Kind is the failure class of an Error.
type Kind int

const (
	// KindConfig means the server is missing configuration an operation needs.
	KindConfig Kind = iota + 1
	// KindProtocol covers malformed requests and broken OAuth round trips.
	KindProtocol
	// KindAuthentication means the presented credential was rejected.
	KindAuthentication
	// KindAuthorization means the identity is valid but not permitted.
	KindAuthorization
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindProtocol:
		return "protocol"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind onto a response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindProtocol:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to clients; Cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error that wraps an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Config, Protocol, Unauthorized and Forbidden are shorthands for New.
func Config(message string) *Error       { return New(KindConfig, message) }
func Protocol(message string) *Error     { return New(KindProtocol, message) }
func Unauthorized(message string) *Error { return New(KindAuthentication, message) }
func Forbidden(message string) *Error    { return New(KindAuthorization, message) }

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors are treated as configuration failures.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindConfig
}

// PublicMessage returns the client-safe message of err.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Internal server error"
}
