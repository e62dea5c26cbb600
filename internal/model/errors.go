package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSourceUnavailable marks a job source that could not be reached or
	// parsed. Callers treat it as "no data this pass".
	ErrSourceUnavailable = errors.New("job source unavailable")

	// ErrNoPostings is reported when a source answered but returned nothing.
	ErrNoPostings = errors.New("source returned no postings")

	// ErrStoreUnavailable wraps persistence failures.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidConfiguration is returned by config loading before anything runs.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
