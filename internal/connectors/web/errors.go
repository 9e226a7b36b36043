package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// StatusError is a non-200 response.
type StatusError struct {
	StatusCode int
	URL        string

	// RetryAfter is the server's requested delay, zero if none was sent.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("web: status %d for %s", e.StatusCode, e.URL)
}

// IsNotFound checks if the error is a 404 or 410 response.
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound || se.StatusCode == http.StatusGone
	}
	return false
}

// IsRateLimited checks if the error is a 429 response.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests
}
