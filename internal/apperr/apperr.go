// Package apperr defines the error taxonomy shared by services and handlers.
// Services return these; the HTTP layer maps them to status codes and keeps
// anything marked internal out of responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError carries every violated rule at once as field -> message,
// so a single response can surface all problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

// NewValidation builds a ValidationError from a field map.
func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// ConflictError signals a duplicate unique key (409).
type ConflictError struct {
	Message string
	Fields  map[string]string
}

func (e *ConflictError) Error() string { return e.Message }

// AuthError signals failed authentication (401). Message is what the client
// sees; Reason is the internal cause and must only reach logs, never the
// response, so "wrong password" and "no such account" stay indistinguishable.
type AuthError struct {
	Message string
	Reason  string
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Reason)
	}
	return e.Message
}

// NewAuth builds an AuthError with a client message and internal reason.
func NewAuth(message, reason string) *AuthError {
	return &AuthError{Message: message, Reason: reason}
}

// UpstreamError signals a failure talking to an external identity provider.
// Mapped to 401 at the boundary.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Status maps an error to the HTTP status code it should produce.
// Unrecognized errors are internal failures.
func Status(err error) int {
	var (
		ve *ValidationError
		ce *ConflictError
		ae *AuthError
		ue *UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &ae), errors.As(err, &ue):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
