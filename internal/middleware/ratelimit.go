package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/contact-relay/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// AdmissionHook observes every decision the gate makes.
type AdmissionHook func(ctx context.Context, adm ratelimit.Admission)

// RateLimiter returns a Huma middleware that admits or rejects each request
// through the gate before any handler logic runs. Operations whose metadata
// carries EndpointConfig{Disabled: true} bypass the gate.
func RateLimiter(
	api huma.API,
	gate *ratelimit.Gate,
	logger *zap.Logger,
	hooks ...AdmissionHook,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		adm := gate.Admit(ctx)
		for _, hook := range hooks {
			hook(ctx.Context(), adm)
		}

		writeLimitHeaders(ctx, adm.Decision)

		if !adm.Decision.Allowed {
			logger.Warn("rate limit exceeded",
				zap.String("client", adm.Key),
				zap.String("path", operationPath(ctx)),
				zap.Int("count", adm.Decision.Count),
				zap.Int("limit", adm.Decision.Limit),
				zap.Duration("retryAfter", adm.Decision.RetryAfter),
			)

			msg := fmt.Sprintf("rate limit exceeded: %d requests allowed per window, retry in %s",
				adm.Decision.Limit, adm.Decision.RetryAfter)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)

			return
		}

		next(huma.WithContext(ctx, ratelimit.ContextWithAdmission(ctx.Context(), adm)))
	}
}

func writeLimitHeaders(ctx huma.Context, d ratelimit.Decision) {
	ctx.SetHeader(HeaderLimit, strconv.Itoa(d.Limit))
	ctx.SetHeader(HeaderRemaining, strconv.Itoa(d.Remaining()))

	if !d.ResetAt.IsZero() {
		ctx.SetHeader(HeaderReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	}

	if !d.Allowed {
		ctx.SetHeader(HeaderRetryAfter, strconv.FormatInt(retryAfterSeconds(d), 10))
	}
}

// retryAfterSeconds rounds up so clients never retry before the window resets.
func retryAfterSeconds(d ratelimit.Decision) int64 {
	secs := int64(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}

	return secs
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
