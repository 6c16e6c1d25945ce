package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBlankCredentials is returned when the identifier or the secret is blank.
	ErrBlankCredentials = errors.New("blank credentials")

	// ErrTransport is returned when the remote API could not be reached or
	// answered with a non-2xx status.
	ErrTransport = errors.New("transport error")
	// ErrMalformedResponse is returned when a response body cannot be decoded
	// as the expected schema.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrEmptyResponse is returned when a 2xx response carries no body.
	ErrEmptyResponse = errors.New("empty response")

	// ErrLoginRejected is returned when the remote API reports success=false.
	ErrLoginRejected = errors.New("login rejected")
	// ErrInvalidUserData is returned when a successful login carries no usable user handle.
	ErrInvalidUserData = errors.New("invalid user data")
)

// TransportError reports a failed round trip: either a non-2xx StatusCode or a
// connectivity Cause (DNS, connect, timeout).
type TransportError struct {
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport: %v", e.Cause)
	}

	return fmt.Sprintf("transport: unexpected status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransport}
	}

	return []error{ErrTransport, e.Cause}
}

// MalformedResponseError reports a response body that could not be decoded.
type MalformedResponseError struct {
	StatusCode int
	Cause      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response (status %d): %v", e.StatusCode, e.Cause)
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Cause}
}

// ErrRequestRejected is returned when a backend request answers success=false.
var ErrRequestRejected = errors.New("request rejected")

// RejectedError carries the backend's message for a success=false answer.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "rejected: " + e.Message
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRequestRejected //nolint:errorlint,err113
}
