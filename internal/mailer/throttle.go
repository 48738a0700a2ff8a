package mailer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledMailer wraps a Mailer with a token bucket so bursts of accepted
// submissions cannot exceed the relay account's sending rate.
type ThrottledMailer struct {
	next    Mailer
	limiter *rate.Limiter
}

// NewThrottledMailer allows perMinute sends per minute with the given burst.
// A non-positive perMinute disables throttling.
func NewThrottledMailer(next Mailer, perMinute, burst int) *ThrottledMailer {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}

	if burst <= 0 {
		burst = 1
	}

	return &ThrottledMailer{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Send waits for a token, bounded by ctx, then delegates.
func (t *ThrottledMailer) Send(ctx context.Context, msg *Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("relay throttled: %w", err)
	}

	return t.next.Send(ctx, msg)
}

// Compile-time check.
var _ Mailer = (*ThrottledMailer)(nil)
