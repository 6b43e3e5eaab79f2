package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("not authorized: login and age verification required")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnavailable        = errors.New("server unavailable")
	ErrSessionChanged     = errors.New("session changed during request")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrUnexpectedContent  = errors.New("unexpected response content type")

	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// DefaultErrorMessage is used when an error response carries no readable
// message.
const DefaultErrorMessage = "request failed"

// ValidationError is a local input rejection raised before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// APIError is a non-2xx response. Message is the server's explanation, or
// DefaultErrorMessage.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is matches ErrUnauthorized for 401 and 403 responses.
func (e *APIError) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// NetworkError wraps a transport failure: the request never produced an HTTP
// response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrUnavailable, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// StatusCode returns the HTTP status of err if it is (or wraps) an APIError,
// and 0 otherwise.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
