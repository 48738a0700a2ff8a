package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/contact-relay/internal/config"
	"github.com/serroba/contact-relay/internal/container"
	"github.com/serroba/contact-relay/internal/messaging"
	"github.com/serroba/contact-relay/internal/store"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
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
}

func listenAddress(options *container.Options, cfg *config.Relay) string {
	if options.Port > 0 {
		return fmt.Sprintf(":%d", options.Port)
	}

	return cfg.ListenAddress
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			cfg, err := do.Invoke[*config.Relay](injector)
			if err != nil {
				logger.Fatal("invalid configuration", zap.String("path", options.Config), zap.Error(err))
			}

			ctx := context.Background()

			if err := do.MustInvoke[*store.Sweeper](injector).Start(ctx); err != nil {
				logger.Fatal("failed to start rate limit sweeper", zap.Error(err))
			}

			// Without Redis the audit consumers run in this process.
			if options.RedisAddr == "" {
				if err := do.MustInvoke[*messaging.ConsumerGroup](injector).Start(ctx); err != nil {
					logger.Fatal("failed to start audit consumers", zap.Error(err))
				}
			}

			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			server = &http.Server{
				Addr:              listenAddress(options, cfg),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.String("addr", server.Addr),
				zap.Int("rateLimitMax", options.RateLimitMax),
				zap.String("rateLimitWindow", options.RateLimitWindow),
				zap.Bool("trustProxy", options.TrustProxy),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")

			_ = logger.Sync()
		})
	})

	cli.Run()
}
