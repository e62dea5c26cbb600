package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/amishk599/jobfloor/internal/model"
)

// jitterFraction spreads retries by up to this share of the backoff either way.
const jitterFraction = 0.3

var _ model.JobSource = (*RetrySource)(nil)

// RetrySource re-issues a provider query after transient failures, backing
// off exponentially between attempts.
type RetrySource struct {
	inner      model.JobSource
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetrySource wraps inner. maxRetries counts attempts after the first;
// baseDelay doubles on each of them unless the provider sent Retry-After.
func NewRetrySource(inner model.JobSource, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetrySource {
	return &RetrySource{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (s *RetrySource) Name() string { return s.inner.Name() }

// Fetch queries the wrapped source. The last error is returned unchanged once
// retries are exhausted or the failure is permanent.
func (s *RetrySource) Fetch(ctx context.Context, q model.Query) ([]model.Posting, error) {
	for attempt := 0; ; attempt++ {
		postings, err := s.inner.Fetch(ctx, q)
		if err == nil {
			return postings, nil
		}
		if attempt >= s.maxRetries || !isRetryable(err) {
			return nil, err
		}

		delay := s.backoffDelay(attempt+1, err)
		s.logger.Warn("provider query failed, retrying",
			"source", s.inner.Name(),
			"query", q.Text,
			"attempt", attempt+1,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", err,
		)
		if err := sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry cancelled: %w: %w", model.ErrSourceUnavailable, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDelay is baseDelay * 2^(attempt-1) with jitter. A Retry-After
// from the provider wins.
func (s *RetrySource) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := s.baseDelay << (attempt - 1)
	jitter := (rand.Float64()*2 - 1) * jitterFraction * float64(delay)
	return delay + time.Duration(jitter)
}

func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, model.ErrInvalidConfiguration):
		return false
	}

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		// network, DNS, truncated body
		return true
	}
	// Any other 4xx means a bad key or query; retrying will not fix it.
	return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= http.StatusInternalServerError
}
