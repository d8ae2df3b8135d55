package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ValidationError.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrEmptyURLList       = errors.New("url list must contain at least one url")
	ErrTooManyURLs        = errors.New("url list exceeds maximum of 10000 urls")
	ErrInvalidURL         = errors.New("url must be an absolute http or https url")
	ErrHostMismatch       = errors.New("url host does not match authority host")
	ErrEmptyHost          = errors.New("authority host must not be empty")
	ErrInvalidHost        = errors.New("authority host must be a bare host name without scheme or path")
	ErrEmptyKey           = errors.New("shared key must not be empty")
	ErrInvalidKey         = errors.New("shared key must be 8-128 characters of a-z, A-Z, 0-9 or '-'")
	ErrInvalidKeyLocation = errors.New("key location must be an absolute url on the authority host")
	ErrNoEndpoints        = errors.New("at least one endpoint is required")
	ErrInvalidEndpoint    = errors.New("endpoint identifier must be a bare host[:port]")
	ErrEndpointNotAllowed = errors.New("endpoint is not in the configured endpoint list")
	ErrBatchTooLarge      = errors.New("url list exceeds the per-request batch limit")
	ErrInvalidChangeType  = errors.New("change type must be URL_UPDATED or URL_DELETED")
)

// ValidationError is returned before any network call is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Err.Error()
	}
	return fmt.Sprintf("validation: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// TransportError covers DNS, connection and timeout failures.
type TransportError struct {
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteRejectionError carries the status and body of a non-success response
// so callers can log the root cause.
type RemoteRejectionError struct {
	StatusCode int
	Body       string
}

func (e *RemoteRejectionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote rejected request: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote rejected request: status %d: %s", e.StatusCode, e.Body)
}

// AuthenticationError means the credential could not be resolved, or the
// remote refused the identity (401/403). StatusCode is zero for local failures.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	switch {
	case e.Err != nil:
		return "authentication: " + e.Err.Error()
	case e.Body != "":
		return fmt.Sprintf("authentication: status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("authentication: status %d", e.StatusCode)
	}
}

func (e *AuthenticationError) Unwrap() error { return e.Err }
