package store_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/contact-relay/internal/ratelimit"
	"github.com/serroba/contact-relay/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func dayPolicy() ratelimit.Policy {
	return ratelimit.Policy{MaxRequests: 4, Window: 24 * time.Hour}
}

func TestRateLimitMemoryStore_TryConsume(t *testing.T) {
	t.Run("creates window on first request", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		d := s.TryConsume("key1", t0, dayPolicy())

		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Count)
		assert.Equal(t, 4, d.Limit)
		assert.Equal(t, t0, d.WindowStart)
		assert.Equal(t, t0.Add(24*time.Hour), d.ResetAt)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("allows up to the limit then denies", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for i := range 4 {
			d := s.TryConsume("key1", t0, dayPolicy())

			assert.True(t, d.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, i+1, d.Count)
		}

		d := s.TryConsume("key1", t0.Add(time.Hour), dayPolicy())

		assert.False(t, d.Allowed)
		assert.Equal(t, 4, d.Count, "denied request must not change the count")
		assert.Equal(t, 0, d.Remaining())
		assert.Equal(t, 23*time.Hour, d.RetryAfter)
	})

	t.Run("resets after the window elapses", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for range 4 {
			s.TryConsume("203.0.113.5", t0, dayPolicy())
		}

		denied := s.TryConsume("203.0.113.5", t0.Add(time.Hour), dayPolicy())
		require.False(t, denied.Allowed)

		d := s.TryConsume("203.0.113.5", t0.Add(25*time.Hour), dayPolicy())

		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Count)
		assert.Equal(t, t0.Add(25*time.Hour), d.WindowStart)
	})

	t.Run("resets exactly at the window boundary", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()
		policy := ratelimit.Policy{MaxRequests: 1, Window: time.Minute}

		s.TryConsume("key1", t0, policy)

		assert.False(t, s.TryConsume("key1", t0.Add(time.Minute-time.Nanosecond), policy).Allowed)
		assert.True(t, s.TryConsume("key1", t0.Add(time.Minute), policy).Allowed)
	})

	t.Run("keeps window start when the clock steps back", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()
		policy := ratelimit.Policy{MaxRequests: 2, Window: time.Minute}

		s.TryConsume("key1", t0, policy)
		d := s.TryConsume("key1", t0.Add(-time.Second), policy)

		assert.True(t, d.Allowed)
		assert.Equal(t, t0, d.WindowStart)
		assert.False(t, s.TryConsume("key1", t0.Add(-time.Second), policy).Allowed)
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for range 10 {
			s.TryConsume("key-b", t0, dayPolicy())
		}

		d := s.TryConsume("key-a", t0, dayPolicy())

		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Count, "key-a should have its own counter")
	})
}

func TestRateLimitMemoryStore_Concurrency(t *testing.T) {
	t.Run("admits exactly the limit under contention", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		const callers = 20

		var (
			allowed atomic.Int64
			wg      sync.WaitGroup
			start   = make(chan struct{})
		)

		for range callers {
			wg.Add(1)

			go func() {
				defer wg.Done()
				<-start

				if s.TryConsume("203.0.113.5", t0, dayPolicy()).Allowed {
					allowed.Add(1)
				}
			}()
		}

		close(start)
		wg.Wait()

		assert.Equal(t, int64(4), allowed.Load())
	})

	t.Run("admits the limit per key across many keys", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore(store.WithShardCount(4))

		const (
			keys      = 50
			perKey    = 10
			maxPerKey = 4
		)

		counts := make([]atomic.Int64, keys)

		var wg sync.WaitGroup

		for k := range keys {
			for range perKey {
				wg.Add(1)

				go func() {
					defer wg.Done()

					if s.TryConsume(fmt.Sprintf("10.0.0.%d", k), t0, dayPolicy()).Allowed {
						counts[k].Add(1)
					}
				}()
			}
		}

		wg.Wait()

		for k := range keys {
			assert.Equal(t, int64(maxPerKey), counts[k].Load(), "key %d", k)
		}

		assert.Equal(t, keys, s.Len())
	})
}

func TestRateLimitMemoryStore_Refund(t *testing.T) {
	t.Run("returns a slot in the same window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		var last ratelimit.Decision
		for range 4 {
			last = s.TryConsume("key1", t0, dayPolicy())
		}

		require.True(t, s.Refund("key1", last.WindowStart))

		d := s.TryConsume("key1", t0.Add(time.Minute), dayPolicy())
		assert.True(t, d.Allowed)
		assert.Equal(t, 4, d.Count)
	})

	t.Run("ignores refunds for a past window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		first := s.TryConsume("key1", t0, dayPolicy())
		s.TryConsume("key1", t0.Add(25*time.Hour), dayPolicy())

		assert.False(t, s.Refund("key1", first.WindowStart))
	})

	t.Run("ignores unknown keys", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		assert.False(t, s.Refund("missing", t0))
	})

	t.Run("never drops below zero", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		d := s.TryConsume("key1", t0, dayPolicy())

		assert.True(t, s.Refund("key1", d.WindowStart))
		assert.False(t, s.Refund("key1", d.WindowStart))
	})
}

func TestRateLimitMemoryStore_Sweep(t *testing.T) {
	t.Run("evicts only elapsed windows", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()
		short := ratelimit.Policy{MaxRequests: 4, Window: time.Minute}

		s.TryConsume("old", t0, short)
		s.TryConsume("fresh", t0.Add(50*time.Second), short)

		evicted := s.Sweep(t0.Add(time.Minute))

		assert.Equal(t, 1, evicted)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("evicted key starts a new window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()
		policy := ratelimit.Policy{MaxRequests: 1, Window: time.Minute}

		s.TryConsume("key1", t0, policy)
		s.Sweep(t0.Add(2 * time.Minute))

		d := s.TryConsume("key1", t0.Add(2*time.Minute), policy)

		assert.True(t, d.Allowed)
		assert.Equal(t, 1, d.Count)
	})
}

func TestRateLimitMemoryStore_MaxKeys(t *testing.T) {
	t.Run("denies new keys when full of live windows", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore(store.WithShardCount(1), store.WithMaxKeys(2))

		assert.True(t, s.TryConsume("a", t0, dayPolicy()).Allowed)
		assert.True(t, s.TryConsume("b", t0, dayPolicy()).Allowed)

		d := s.TryConsume("c", t0, dayPolicy())

		assert.False(t, d.Allowed)
		assert.Equal(t, 0, d.Remaining())
		assert.Equal(t, d.Limit, d.Count)
		assert.Equal(t, 2, s.Len())

		assert.True(t, s.TryConsume("a", t0, dayPolicy()).Allowed, "known keys are still served")
	})

	t.Run("makes room by sweeping stale windows", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore(store.WithShardCount(1), store.WithMaxKeys(1))
		policy := ratelimit.Policy{MaxRequests: 4, Window: time.Minute}

		s.TryConsume("a", t0, policy)

		d := s.TryConsume("b", t0.Add(time.Minute), policy)

		assert.True(t, d.Allowed)
		assert.Equal(t, 1, s.Len())
	})
}
