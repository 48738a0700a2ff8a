package container

import (
	"fmt"
	"time"

	"github.com/samber/do"
	"github.com/serroba/contact-relay/internal/metrics"
	"github.com/serroba/contact-relay/internal/ratelimit"
	"github.com/serroba/contact-relay/internal/store"
	"go.uber.org/zap"
)

func RateLimitPackage(i *do.Injector) {
	do.ProvideValue[ratelimit.Clock](i, ratelimit.SystemClock)

	do.Provide(i, func(i *do.Injector) (ratelimit.Policy, error) {
		opts := do.MustInvoke[*Options](i)

		window, err := time.ParseDuration(opts.RateLimitWindow)
		if err != nil {
			return ratelimit.Policy{}, fmt.Errorf("invalid rate limit window: %w", err)
		}

		return ratelimit.NewPolicy(opts.RateLimitMax, window)
	})

	do.Provide(i, func(i *do.Injector) (*store.RateLimitMemoryStore, error) {
		opts := do.MustInvoke[*Options](i)

		return store.NewRateLimitMemoryStore(store.WithMaxKeys(opts.MaxKeys)), nil
	})

	do.Provide(i, func(i *do.Injector) (ratelimit.KeyExtractor, error) {
		opts := do.MustInvoke[*Options](i)

		return ratelimit.NewKeyExtractor(opts.TrustProxy), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.Gate, error) {
		limiter := ratelimit.NewFixedWindowLimiter(
			do.MustInvoke[*store.RateLimitMemoryStore](i),
			do.MustInvoke[ratelimit.Policy](i),
			do.MustInvoke[ratelimit.Clock](i),
		)

		return ratelimit.NewGate(do.MustInvoke[ratelimit.KeyExtractor](i), limiter), nil
	})

	do.Provide(i, func(i *do.Injector) (*store.Sweeper, error) {
		opts := do.MustInvoke[*Options](i)

		interval, err := time.ParseDuration(opts.SweepInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid sweep interval: %w", err)
		}

		return store.NewSweeper(
			do.MustInvoke[*store.RateLimitMemoryStore](i),
			do.MustInvoke[ratelimit.Clock](i),
			interval,
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}
