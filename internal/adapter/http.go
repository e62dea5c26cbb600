package adapter

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobfloor/internal/model"
)

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// statusError converts a non-2xx response into an *model.HTTPError.
func statusError(resp *http.Response) error {
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("unexpected status %s", resp.Status),
	}
}

// unavailable tags err so callers can recognise it as a source outage while
// keeping the underlying error (and any *model.HTTPError) reachable.
func unavailable(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, model.ErrSourceUnavailable, err)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
