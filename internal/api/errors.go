//
//
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/racetag/racetag/internal/clock"
	"github.com/racetag/racetag/internal/race"
)

// APIError represents an API-layer error with HTTP status code.
type APIError struct {
	Code       string
	Message    string
	Details    interface{}
	StatusCode int
}

// API error codes for transport and lookup conditions.
var (
	ErrBadRequest  = errors.New("BAD_REQUEST")
	ErrNotFound    = errors.New("NOT_FOUND")
	ErrUnavailable = errors.New("UNAVAILABLE")
)

// NewAPIError creates a new API error.
func NewAPIError(code string, message string, statusCode int, details interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToAPIError maps err to the status, code and message written to clients.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, clock.ErrMalformedTimestamp),
		errors.Is(err, race.ErrEmptyTagID):
		return NewAPIError("BAD_REQUEST", err.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, ErrNotFound):
		return NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound, nil)
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return NewAPIError("UNAVAILABLE", "Service is temporarily unavailable", http.StatusServiceUnavailable, nil)
	default:
		return NewAPIError("INTERNAL", "Internal server error", http.StatusInternalServerError, map[string]interface{}{
			"original": err.Error(),
		})
	}
}
