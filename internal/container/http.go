package container

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do"
	"github.com/serroba/contact-relay/internal/analytics"
	"github.com/serroba/contact-relay/internal/config"
	"github.com/serroba/contact-relay/internal/handlers"
	"github.com/serroba/contact-relay/internal/health"
	"github.com/serroba/contact-relay/internal/mailer"
	"github.com/serroba/contact-relay/internal/metrics"
	"github.com/serroba/contact-relay/internal/middleware"
	"github.com/serroba/contact-relay/internal/ratelimit"
	"go.uber.org/zap"
)

func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(
			chimw.Recoverer,
			chimw.SetHeader("X-Content-Type-Options", "nosniff"),
			chimw.SetHeader("X-Robots-Tag", "noindex, nofollow"),
		)
		router.Handle("/metrics", metrics.Handler(do.MustInvoke[*prometheus.Registry](i)))

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (*health.Handler, error) {
		opts := do.MustInvoke[*Options](i)
		checkers := map[string]health.Checker{}

		if opts.RedisAddr != "" {
			checkers["redis"] = health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)
		}

		if opts.DatabaseURL != "" {
			checkers["postgres"] = health.NewPostgresChecker(do.MustInvoke[*Postgres](i).Pool)
		}

		return health.NewHandler(checkers), nil
	})

	do.Provide(i, func(i *do.Injector) (*handlers.ContactHandler, error) {
		opts := do.MustInvoke[*Options](i)

		return handlers.NewContactHandler(
			do.MustInvoke[mailer.Mailer](i),
			do.MustInvoke[*config.Relay](i).ForwardAddress,
			do.MustInvoke[*zap.Logger](i),
			handlers.WithRefund(do.MustInvoke[*ratelimit.Gate](i), opts.RefundInvalid),
			handlers.WithAuditor(do.MustInvoke[*analytics.Publisher](i)),
			handlers.WithMetrics(do.MustInvoke[*metrics.Metrics](i)),
			handlers.WithClock(do.MustInvoke[ratelimit.Clock](i)),
		)
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		gate := do.MustInvoke[*ratelimit.Gate](i)

		api := humachi.New(router, huma.DefaultConfig("Contact Relay", "1.0.0"))

		// Middlewares apply to operations registered after them.
		api.UseMiddleware(
			middleware.RequestMeta(do.MustInvoke[ratelimit.KeyExtractor](i)),
			middleware.RateLimiter(api, gate, logger, admissionHooks(i)...),
		)

		handlers.RegisterRoutes(api, do.MustInvoke[*handlers.ContactHandler](i))
		health.RegisterRoutes(api, do.MustInvoke[*health.Handler](i))

		return api, nil
	})
}

func admissionHooks(i *do.Injector) []middleware.AdmissionHook {
	m := do.MustInvoke[*metrics.Metrics](i)
	audit := do.MustInvoke[*analytics.Publisher](i)
	clock := do.MustInvoke[ratelimit.Clock](i)

	return []middleware.AdmissionHook{
		func(_ context.Context, adm ratelimit.Admission) {
			m.ObserveAdmission(adm.Decision.Allowed)
		},
		func(ctx context.Context, adm ratelimit.Admission) {
			if adm.Decision.Allowed {
				return
			}

			audit.Rejected(ctx, analytics.NewContactRejectedEvent(
				analytics.ReasonRateLimited, adm.Key, "", clock.Now()))
		},
	}
}
