package router

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by the matcher when no registered route matches
// the request's method and path. It is recoverable per request: the
// dispatch pipeline turns it into the configured not-found response.
var ErrNotFound = errors.New("no route found")

// HTTPError represents an HTTP error with a status code and message.
// When returned from a handler or middleware, the dispatch pipeline uses
// the status code and message to generate the response, which allows
// handlers to control the exact error response sent to clients.
type HTTPError struct {
	StatusCode int    // HTTP status code (e.g., 400, 404, 500)
	Message    string // Error message sent in the response body
}

// Error implements the error interface.
// It returns a string representation in the format "status: message".
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the specified status code and
// message. It's a convenience function for use in handlers.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// panicError wraps a recovered panic so it can travel the error path of
// the dispatch pipeline like any other handler failure.
type panicError struct {
	value any
	stack []byte
}

// Error implements the error interface.
func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
