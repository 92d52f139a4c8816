package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Typed errors for backend calls.
// Callers use errors.Is() rather than matching on status text.
var (
	// ErrBadRequest indicates the backend rejected the request (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates missing or expired credentials (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the post does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the backend throttled the client (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("backend server error")

	// ErrCircuitOpen is returned without a network call while an endpoint is failing.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// IsAuthError returns true if the error is an authentication/authorization error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// wrapStatus maps a non-2xx response to a typed error
func wrapStatus(operation string, status int, message string) error {
	var kind error
	switch {
	case status == http.StatusBadRequest:
		kind = ErrBadRequest
	case status == http.StatusUnauthorized:
		kind = ErrUnauthorized
	case status == http.StatusForbidden:
		kind = ErrForbidden
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status >= 500:
		kind = ErrServer
	default:
		return fmt.Errorf("%s: unexpected status %d: %s", operation, status, message)
	}
	if message == "" {
		return fmt.Errorf("%s: %w (status %d)", operation, kind, status)
	}
	return fmt.Errorf("%s: %w (status %d): %s", operation, kind, status, message)
}

// tripsBreaker reports whether err indicates the endpoint itself is unhealthy.
// Client errors and caller cancellation say nothing about backend health.
func tripsBreaker(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrBadRequest) &&
		!errors.Is(err, ErrUnauthorized) &&
		!errors.Is(err, ErrForbidden) &&
		!errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled)
}
