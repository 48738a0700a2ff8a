package ratelimit

import (
	"context"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request from the given key should be admitted and
	// records it when it is.
	Allow(ctx context.Context, key string) Decision

	// Refund returns the slot taken by an earlier allowed decision for key.
	Refund(ctx context.Context, key string, decision Decision) bool
}

// FixedWindowLimiter applies a single quota policy using fixed windows that
// start on a key's first request and reset wholesale once elapsed.
type FixedWindowLimiter struct {
	store  Store
	policy Policy
	clock  Clock
}

// NewFixedWindowLimiter creates a new fixed window rate limiter.
func NewFixedWindowLimiter(store Store, policy Policy, clock Clock) *FixedWindowLimiter {
	if clock == nil {
		clock = SystemClock
	}

	return &FixedWindowLimiter{
		store:  store,
		policy: policy,
		clock:  clock,
	}
}

// Allow counts a request for key against the current window.
func (l *FixedWindowLimiter) Allow(_ context.Context, key string) Decision {
	return l.store.TryConsume(key, l.clock.Now(), l.policy)
}

// Refund gives back the request counted by decision if its window is still
// current. It reports whether anything was returned.
func (l *FixedWindowLimiter) Refund(_ context.Context, key string, decision Decision) bool {
	if !decision.Allowed {
		return false
	}

	return l.store.Refund(key, decision.WindowStart)
}

// Policy returns the quota policy the limiter enforces.
func (l *FixedWindowLimiter) Policy() Policy {
	return l.policy
}
