package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobfloor/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockSource calls a function on each invocation, tracking call count.
type mockSource struct {
	calls int
	fn    func(attempt int) ([]model.Posting, error)
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Fetch(_ context.Context, _ model.Query) ([]model.Posting, error) {
	m.calls++
	return m.fn(m.calls)
}

func unavailable(err error) error {
	return fmt.Errorf("mock: %w: %w", model.ErrSourceUnavailable, err)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	postings := []model.Posting{{ID: "1", Title: "Engineer"}}
	mock := &mockSource{fn: func(_ int) ([]model.Posting, error) {
		return postings, nil
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rs.Fetch(context.Background(), model.Query{Text: "Engineer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("unexpected postings: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
	if rs.Name() != "mock" {
		t.Errorf("Name() = %q, want inner name", rs.Name())
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockSource{fn: func(attempt int) ([]model.Posting, error) {
		if attempt == 1 {
			return nil, unavailable(&model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")})
		}
		return []model.Posting{{ID: "1"}}, nil
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rs.Fetch(context.Background(), model.Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.Posting, error) {
		return nil, unavailable(&model.HTTPError{StatusCode: 403, Err: errors.New("forbidden")})
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rs.Fetch(context.Background(), model.Query{})
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 403 {
		t.Fatalf("expected HTTPError with status 403, got %v", err)
	}
	if !errors.Is(err, model.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable to survive, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.Posting, error) {
		return nil, unavailable(&model.HTTPError{StatusCode: 500, Err: errors.New("internal error")})
	}}

	rs := NewRetrySource(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rs.Fetch(context.Background(), model.Query{})
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func TestRetry_NetworkErrorIsRetried(t *testing.T) {
	mock := &mockSource{fn: func(attempt int) ([]model.Posting, error) {
		if attempt < 3 {
			return nil, unavailable(errors.New("connection reset"))
		}
		return []model.Posting{{ID: "ok"}}, nil
	}}

	rs := NewRetrySource(mock, 2, time.Millisecond, discardLogger())
	got, err := rs.Fetch(context.Background(), model.Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || mock.calls != 3 {
		t.Fatalf("got %d postings after %d calls, want 1 after 3", len(got), mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.Posting, error) {
		return nil, unavailable(&model.HTTPError{StatusCode: 500, Err: errors.New("internal error")})
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	rs := NewRetrySource(mock, 2, time.Second, discardLogger())
	_, err := rs.Fetch(ctx, model.Query{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !errors.Is(err, model.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestBackoffDelay_PrefersRetryAfter(t *testing.T) {
	rs := NewRetrySource(&mockSource{}, 2, time.Second, discardLogger())
	err := unavailable(&model.HTTPError{StatusCode: 429, RetryAfter: 42 * time.Second})
	if got := rs.backoffDelay(1, err); got != 42*time.Second {
		t.Errorf("backoffDelay = %v, want 42s", got)
	}
}

func TestBackoffDelay_ExponentialWithJitter(t *testing.T) {
	rs := NewRetrySource(&mockSource{}, 3, 100*time.Millisecond, discardLogger())
	got := rs.backoffDelay(3, errors.New("boom"))
	// 100ms * 2^2 = 400ms ±30%
	if got < 280*time.Millisecond || got > 520*time.Millisecond {
		t.Errorf("backoffDelay(3) = %v, want within 280ms..520ms", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", unavailable(&model.HTTPError{StatusCode: 429}), true},
		{"bad gateway", unavailable(&model.HTTPError{StatusCode: 502}), true},
		{"unauthorized", unavailable(&model.HTTPError{StatusCode: 401}), false},
		{"network", unavailable(errors.New("dial tcp: i/o timeout")), true},
		{"cancelled", fmt.Errorf("fetch: %w", context.Canceled), false},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), false},
		{"misconfigured", fmt.Errorf("no api key: %w", model.ErrInvalidConfiguration), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetry_ZeroRetriesMakesOneCall(t *testing.T) {
	mock := &mockSource{fn: func(_ int) ([]model.Posting, error) {
		return nil, unavailable(errors.New("connection refused"))
	}}

	rs := NewRetrySource(mock, 0, time.Millisecond, discardLogger())
	if _, err := rs.Fetch(context.Background(), model.Query{}); !errors.Is(err, model.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call, got %d", mock.calls)
	}
}
