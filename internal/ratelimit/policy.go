package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy is returned when a quota policy has a non-positive limit or window.
var ErrInvalidPolicy = errors.New("invalid rate limit policy")

// Policy is the quota every client key is held to: at most MaxRequests
// accepted requests per fixed window of length Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// NewPolicy validates and builds a quota policy.
func NewPolicy(maxRequests int, window time.Duration) (Policy, error) {
	if maxRequests <= 0 {
		return Policy{}, fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidPolicy, maxRequests)
	}

	if window <= 0 {
		return Policy{}, fmt.Errorf("%w: window must be positive, got %s", ErrInvalidPolicy, window)
	}

	return Policy{MaxRequests: maxRequests, Window: window}, nil
}

func (p Policy) String() string {
	return fmt.Sprintf("%d requests per %s", p.MaxRequests, p.Window)
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed bool
	// Count is the number of requests accepted in the current window,
	// including this one when Allowed.
	Count int
	Limit int
	// WindowStart identifies the window the decision was made in.
	WindowStart time.Time
	ResetAt     time.Time
	// RetryAfter is set on denied decisions.
	RetryAfter time.Duration
}

// Remaining reports how many more requests fit in the current window. A
// denied decision never has any left.
func (d Decision) Remaining() int {
	if !d.Allowed || d.Count >= d.Limit {
		return 0
	}

	return d.Limit - d.Count
}
