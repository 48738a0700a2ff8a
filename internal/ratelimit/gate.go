package ratelimit

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// Admission records the decision made for one request.
type Admission struct {
	Key      string
	Decision Decision
}

// Gate turns an inbound request into an admission decision by extracting the
// client key and consulting the limiter.
type Gate struct {
	keys    KeyExtractor
	limiter Limiter
}

// NewGate creates a new admission gate.
func NewGate(keys KeyExtractor, limiter Limiter) *Gate {
	return &Gate{
		keys:    keys,
		limiter: limiter,
	}
}

// Admit decides whether the request may proceed.
func (g *Gate) Admit(ctx huma.Context) Admission {
	key := g.keys.Key(ctx)

	return Admission{
		Key:      key,
		Decision: g.limiter.Allow(ctx.Context(), key),
	}
}

// Refund returns the slot taken by the admission carried in ctx, if any.
func (g *Gate) Refund(ctx context.Context) bool {
	adm, ok := AdmissionFromContext(ctx)
	if !ok {
		return false
	}

	return g.limiter.Refund(ctx, adm.Key, adm.Decision)
}

type admissionKey struct{}

// ContextWithAdmission attaches an admission to the request context.
func ContextWithAdmission(ctx context.Context, adm Admission) context.Context {
	return context.WithValue(ctx, admissionKey{}, adm)
}

// AdmissionFromContext extracts the admission made for the current request.
func AdmissionFromContext(ctx context.Context) (Admission, bool) {
	adm, ok := ctx.Value(admissionKey{}).(Admission)

	return adm, ok
}
