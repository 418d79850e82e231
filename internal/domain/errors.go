package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}

	// ConfigurationError indicates a provider or credential misconfiguration
	// detected before streaming begins. Never downgraded to a runtime fallback.
	ConfigurationError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string      { return e.Message }
func (e *ValidationError) Error() string    { return e.Message }
func (e *UnauthorizedError) Error() string  { return e.Message }
func (e *ForbiddenError) Error() string     { return e.Message }
func (e *ConfigurationError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int    { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int  { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int     { return http.StatusForbidden }
func (e *ConfigurationError) StatusCode() int { return http.StatusInternalServerError }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConfiguration = errors.New("configuration error")
	ErrUpstream      = errors.New("upstream model error")
	ErrPersistence   = errors.New("persistence error")
	ErrUnavailable   = errors.New("service unavailable")
)

// Is implementations so errors.Is() matches the corresponding sentinels.
func (e *NotFoundError) Is(target error) bool      { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool    { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool  { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool     { return target == ErrForbidden }
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
