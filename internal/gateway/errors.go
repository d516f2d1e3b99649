package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// The gateway error taxonomy. Callers branch with errors.Is and own the
// user-facing messaging; the client never retries on its own.
var (
	// ErrNetwork means the backend was unreachable: connection refused,
	// timeout, DNS failure.
	ErrNetwork = errors.New("backend unreachable")
	// ErrAuth covers 401 and 403, including failed logins.
	ErrAuth = errors.New("authentication failed")
	// ErrNotFound covers 404, typically a stale id.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation covers 400 and 422 rejections.
	ErrValidation = errors.New("request rejected")
	// ErrServer covers every 5xx.
	ErrServer = errors.New("backend error")
)

// APIError carries the HTTP detail behind a taxonomy error.
type APIError struct {
	Kind       error
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%v (status %d)", e.Kind, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Kind }

// classify maps an HTTP status code onto the taxonomy.
func classify(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status >= 500:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}
