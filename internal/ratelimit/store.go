package ratelimit

import "time"

// Store defines the interface for per-client quota window storage.
type Store interface {
	// TryConsume checks the key's current window against the policy and, if
	// there is room, records the request. Check and record happen as one
	// indivisible step with respect to other calls for the same key.
	TryConsume(key string, now time.Time, policy Policy) Decision

	// Refund gives back one request accepted in the window that began at
	// windowStart. It reports false if that window is no longer current.
	Refund(key string, windowStart time.Time) bool
}
