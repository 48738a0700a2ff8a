package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/contact-relay/internal/ratelimit"
	"github.com/serroba/contact-relay/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(maxRequests int) *ratelimit.Gate {
	limiter := ratelimit.NewFixedWindowLimiter(
		store.NewRateLimitMemoryStore(),
		ratelimit.Policy{MaxRequests: maxRequests, Window: time.Hour},
		newManualClock(),
	)

	return ratelimit.NewGate(ratelimit.NewPeerKeyExtractor(), limiter)
}

func TestGate_Admit(t *testing.T) {
	t.Run("keys the decision by client", func(t *testing.T) {
		gate := newTestGate(1)

		first := gate.Admit(newMockHumaContext("203.0.113.5:1000"))
		second := gate.Admit(newMockHumaContext("203.0.113.5:2000"))
		other := gate.Admit(newMockHumaContext("198.51.100.7:1000"))

		assert.Equal(t, "203.0.113.5", first.Key)
		assert.True(t, first.Decision.Allowed)
		assert.False(t, second.Decision.Allowed, "same host on another port is the same client")
		assert.True(t, other.Decision.Allowed)
	})
}

func TestGate_Refund(t *testing.T) {
	t.Run("refunds the admission carried in context", func(t *testing.T) {
		gate := newTestGate(1)

		adm := gate.Admit(newMockHumaContext("203.0.113.5:1000"))
		require.True(t, adm.Decision.Allowed)

		ctx := ratelimit.ContextWithAdmission(context.Background(), adm)

		assert.True(t, gate.Refund(ctx))
		assert.True(t, gate.Admit(newMockHumaContext("203.0.113.5:1000")).Decision.Allowed)
	})

	t.Run("does nothing without an admission", func(t *testing.T) {
		gate := newTestGate(1)

		assert.False(t, gate.Refund(context.Background()))
	})
}

func TestAdmissionFromContext(t *testing.T) {
	_, ok := ratelimit.AdmissionFromContext(context.Background())
	assert.False(t, ok)

	want := ratelimit.Admission{Key: "k", Decision: ratelimit.Decision{Allowed: true, Count: 1, Limit: 4}}
	got, ok := ratelimit.AdmissionFromContext(ratelimit.ContextWithAdmission(context.Background(), want))

	assert.True(t, ok)
	assert.Equal(t, want, got)
}
