// Package domainerrors defines the tagged error type used across the adapter.
//
// Every failure a collaborator can produce is tagged with a Kind. The HTTP
// layer translates kinds to status codes and client-visible messages, so
// services and clients never reason about HTTP statuses directly. Untagged
// errors are treated as defects and render as 500.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the expected failure modes of the pipeline.
type Kind string

const (
	KindMissingAuthorization       Kind = "missing_authorization_header"
	KindInvalidToken               Kind = "invalid_token"
	KindMissingAgencyConfiguration Kind = "missing_agency_configuration"
	KindMissingPatronAgency        Kind = "missing_patron_agency"
	KindMissingCredentials         Kind = "missing_credentials"
	KindUpstreamTimeout            Kind = "upstream_timeout"
	KindUpstreamFailure            Kind = "upstream_failure"
	KindInternal                   Kind = "internal"
)

// Error carries a failure kind plus the message rendered to the caller.
type Error struct {
	Kind    Kind
	Message string
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

// New creates a tagged error with a client-visible message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an underlying error. The wrapped error is kept for logging but is
// never rendered to the caller; only Message is.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Untagged errors report
// KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// HasKind reports whether the error chain carries the given kind.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the client-visible message, falling back to a generic one
// for untagged errors so internal detail never leaks.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return "internal server error"
}

// HTTPStatus maps a kind to the response status per the adapter's error
// policy.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindMissingAuthorization:
		return http.StatusBadRequest
	case KindInvalidToken,
		KindMissingAgencyConfiguration,
		KindMissingPatronAgency,
		KindMissingCredentials:
		return http.StatusForbidden
	case KindUpstreamTimeout, KindUpstreamFailure, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Expected reports whether the error is an anticipated control-flow outcome
// (logged at info) as opposed to a likely defect (logged at error).
func Expected(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind != KindInternal
}
