package store

import (
	"math/bits"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/serroba/contact-relay/internal/ratelimit"
)

const defaultShardCount = 32

type windowState struct {
	count       int
	windowStart time.Time
	expiresAt   time.Time
}

type windowShard struct {
	mu      sync.Mutex
	entries map[string]*windowState
}

// sweep drops every entry whose window has fully elapsed. Caller holds mu.
func (sh *windowShard) sweep(now time.Time) int {
	evicted := 0

	for key, state := range sh.entries {
		if !now.Before(state.expiresAt) {
			delete(sh.entries, key)

			evicted++
		}
	}

	return evicted
}

// RateLimitMemoryStore is an in-memory, sharded implementation of ratelimit.Store.
// Each key lives in exactly one shard and every operation on a key holds that
// shard's lock for the whole read-modify-write.
type RateLimitMemoryStore struct {
	shards      []*windowShard
	mask        uint64
	maxPerShard int
}

// RateLimitStoreOption configures a RateLimitMemoryStore.
type RateLimitStoreOption func(*rateLimitStoreConfig)

type rateLimitStoreConfig struct {
	shards  int
	maxKeys int
}

// WithShardCount sets the number of shards, rounded up to a power of two.
func WithShardCount(n int) RateLimitStoreOption {
	return func(c *rateLimitStoreConfig) { c.shards = n }
}

// WithMaxKeys caps the number of tracked client keys. Zero means unlimited.
// The cap is split evenly across shards.
func WithMaxKeys(n int) RateLimitStoreOption {
	return func(c *rateLimitStoreConfig) { c.maxKeys = n }
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore(opts ...RateLimitStoreOption) *RateLimitMemoryStore {
	cfg := rateLimitStoreConfig{shards: defaultShardCount}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := nextPowerOfTwo(cfg.shards)

	s := &RateLimitMemoryStore{
		shards: make([]*windowShard, n),
		mask:   uint64(n - 1),
	}

	for i := range s.shards {
		s.shards[i] = &windowShard{entries: make(map[string]*windowState)}
	}

	if cfg.maxKeys > 0 {
		s.maxPerShard = max(1, (cfg.maxKeys+n-1)/n)
	}

	return s
}

func (s *RateLimitMemoryStore) shard(key string) *windowShard {
	return s.shards[xxhash.Sum64String(key)&s.mask]
}

// TryConsume counts a request for key, opening a new window when the
// previous one has elapsed.
func (s *RateLimitMemoryStore) TryConsume(key string, now time.Time, policy ratelimit.Policy) ratelimit.Decision {
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	state, ok := sh.entries[key]
	if !ok {
		if s.maxPerShard > 0 && len(sh.entries) >= s.maxPerShard && sh.sweep(now) == 0 {
			// Shard is full of live windows; refuse to track another key.
			return ratelimit.Decision{
				Allowed:    false,
				Count:      policy.MaxRequests,
				Limit:      policy.MaxRequests,
				ResetAt:    now,
				RetryAfter: time.Second,
			}
		}

		state = &windowState{}
		sh.entries[key] = state
		state.reset(now, policy)

		return state.decision(true, now, policy)
	}

	if now.Sub(state.windowStart) >= policy.Window {
		state.reset(now, policy)

		return state.decision(true, now, policy)
	}

	if state.count < policy.MaxRequests {
		state.count++

		return state.decision(true, now, policy)
	}

	return state.decision(false, now, policy)
}

// Refund decrements the count of the window starting at windowStart.
func (s *RateLimitMemoryStore) Refund(key string, windowStart time.Time) bool {
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	state, ok := sh.entries[key]
	if !ok || !state.windowStart.Equal(windowStart) || state.count == 0 {
		return false
	}

	state.count--

	return true
}

// Sweep evicts every key whose window has elapsed at now and returns how many were removed.
func (s *RateLimitMemoryStore) Sweep(now time.Time) int {
	evicted := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		evicted += sh.sweep(now)
		sh.mu.Unlock()
	}

	return evicted
}

// Len returns the number of tracked client keys.
func (s *RateLimitMemoryStore) Len() int {
	n := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}

	return n
}

func (w *windowState) reset(now time.Time, policy ratelimit.Policy) {
	w.count = 1
	w.windowStart = now
	w.expiresAt = now.Add(policy.Window)
}

func (w *windowState) decision(allowed bool, now time.Time, policy ratelimit.Policy) ratelimit.Decision {
	d := ratelimit.Decision{
		Allowed:     allowed,
		Count:       w.count,
		Limit:       policy.MaxRequests,
		WindowStart: w.windowStart,
		ResetAt:     w.expiresAt,
	}

	if !allowed {
		d.RetryAfter = w.expiresAt.Sub(now)
	}

	return d
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << bits.Len(uint(n-1))
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitMemoryStore)(nil)
