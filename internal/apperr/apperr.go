// Package apperr defines the error taxonomy shared by the hub and the HTTP
// surface. Every error that may reach a client is classified by Kind, and only
// its Title is ever shown to the caller.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an error by who caused it and who may see it.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindDomain
	KindNotFound
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindDomain:
		return "domain"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport"
	default:
		return "internal"
	}
}

// Error is a classified error. Title is safe to send to the caller; Err is not.
type Error struct {
	Kind  Kind
	Title string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Title, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Title)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps the kind onto an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindDomain:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, title string, cause error) *Error {
	return &Error{Kind: kind, Title: title, Err: cause}
}

// Authentication reports a missing, invalid or expired credential, or an
// account that is not verified yet.
func Authentication(title string, cause error) error {
	return newError(KindAuthentication, title, cause)
}

// Authorization reports a caller lacking permission for an action.
func Authorization(title string) error {
	return newError(KindAuthorization, title, nil)
}

// Domain reports a rejected domain action (bad input, not a member, ...).
func Domain(title string) error {
	return newError(KindDomain, title, nil)
}

// NotFound reports a missing domain object.
func NotFound(title string) error {
	return newError(KindNotFound, title, nil)
}

// Transport reports a push that failed because the target connection is gone.
func Transport(title string, cause error) error {
	return newError(KindTransport, title, cause)
}

// Internal wraps an unexpected failure. Its cause is logged, never shown.
func Internal(cause error) error {
	return newError(KindInternal, "Internal server error", cause)
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode returns the status code and client-safe title for err.
// Unclassified errors collapse into a generic 500.
func StatusCode(err error) (int, string) {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode(), e.Title
	}
	return http.StatusInternalServerError, "Internal server error"
}
