package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/contact-relay/internal/handlers"
	"github.com/serroba/contact-relay/internal/ratelimit"
)

// RequestMeta is a middleware that adds client IP, user-agent, and referrer to
// the request context. The client IP follows the same proxy trust rules as the
// rate limit key.
func RequestMeta(keys ratelimit.KeyExtractor) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  keys.Key(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		next(huma.WithContext(ctx, handlers.ContextWithRequestMeta(ctx.Context(), meta)))
	}
}
