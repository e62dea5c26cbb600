package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobfloor/internal/model"
)

// ProviderRateLimiter enforces a minimum delay between requests to the same
// job provider.
type ProviderRateLimiter struct {
	mu       sync.Mutex
	nextSlot map[string]time.Time // key: provider name
	minDelay time.Duration
}

// NewProviderRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same provider.
func NewProviderRateLimiter(minDelay time.Duration) *ProviderRateLimiter {
	return &ProviderRateLimiter{
		nextSlot: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until the caller's reserved slot for provider arrives.
// Concurrent callers each reserve a distinct slot, minDelay apart.
// Returns an error if the context is cancelled while waiting.
func (r *ProviderRateLimiter) Wait(ctx context.Context, provider string) error {
	r.mu.Lock()
	now := time.Now()
	slot, ok := r.nextSlot[provider]
	if !ok || slot.Before(now) {
		slot = now
	}
	r.nextSlot[provider] = slot.Add(r.minDelay)
	r.mu.Unlock()

	remaining := time.Until(slot)
	if remaining <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", provider, ctx.Err())
	case <-time.After(remaining):
	}
	return nil
}

// Ensure RateLimitedSource implements model.JobSource.
var _ model.JobSource = (*RateLimitedSource)(nil)

// RateLimitedSource is a decorator that enforces provider-level rate limiting
// before delegating to the wrapped JobSource.
type RateLimitedSource struct {
	inner   model.JobSource
	limiter *ProviderRateLimiter
}

// NewRateLimitedSource wraps a JobSource with provider-level rate limiting.
// All sources targeting the same provider should share the same limiter.
func NewRateLimitedSource(inner model.JobSource, limiter *ProviderRateLimiter) *RateLimitedSource {
	return &RateLimitedSource{
		inner:   inner,
		limiter: limiter,
	}
}

func (s *RateLimitedSource) Name() string { return s.inner.Name() }

// Fetch waits for the limiter to allow a request, then delegates.
func (s *RateLimitedSource) Fetch(ctx context.Context, q model.Query) ([]model.Posting, error) {
	if err := s.limiter.Wait(ctx, s.inner.Name()); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)
	}
	return s.inner.Fetch(ctx, q)
}
