package container_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/contact-relay/internal/container"
	"github.com/serroba/contact-relay/internal/ratelimit"
	"github.com/serroba/contact-relay/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relayConfig = `
user = "bob@mail.com"
pwd = "04 08 0F 10 17 2A"
forward_address = "alice@mail.com"
server = "smtp.mail.com"
listen_address = "127.0.0.1:8080"
`

func newInjector(t *testing.T) *do.Injector {
	t.Helper()

	path := filepath.Join(t.TempDir(), "Config.toml")
	require.NoError(t, os.WriteFile(path, []byte(relayConfig), 0o600))

	opts := &container.Options{
		Config:          path,
		LogFormat:       "console",
		RateLimitMax:    4,
		RateLimitWindow: "24h",
		SweepInterval:   "10m",
		RefundInvalid:   true,
		RelayPerMinute:  30,
		RelayBurst:      5,
	}

	injector := do.New()
	do.ProvideValue(injector, opts)
	container.LoggerPackage(injector)
	container.ConfigPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.RateLimitPackage(injector)
	container.MetricsPackage(injector)
	container.MailerPackage(injector)
	container.TransportPackage(injector)
	container.PublisherGroupPackage(injector)
	container.ConsumerGroupPackage(injector)
	container.HTTPPackage(injector)

	t.Cleanup(func() { _ = injector.Shutdown() })

	return injector
}

func TestHTTPPackage(t *testing.T) {
	injector := newInjector(t)

	router := do.MustInvoke[*chi.Mux](injector)
	_ = do.MustInvoke[huma.API](injector)

	t.Run("health bypasses the gate and carries security headers", func(t *testing.T) {
		for range 6 {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "noindex, nofollow", rec.Header().Get("X-Robots-Tag"))
			assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
		}
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "contact_relay_ratelimit_tracked_keys")
	})

	t.Run("sweeper is wired to the rate limit store", func(t *testing.T) {
		sweeper := do.MustInvoke[*store.Sweeper](injector)

		assert.Equal(t, 0, sweeper.RunOnce())
	})
}

func TestRateLimitPackage_RejectsBadWindow(t *testing.T) {
	injector := do.New()
	do.ProvideValue(injector, &container.Options{RateLimitMax: 4, RateLimitWindow: "a day"})
	container.RateLimitPackage(injector)

	_, err := do.Invoke[ratelimit.Policy](injector)
	assert.Error(t, err)
}
