package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/contact-relay/internal/config"
	"go.uber.org/zap"
)

// Options are the process flags, also settable as SERVICE_* environment variables.
type Options struct {
	Config          string `default:"Config.toml" help:"Relay configuration file (.toml, .yaml or .yml)"      short:"c"`
	Port            int    `default:"0"           help:"Port to listen on, overrides listen_address"         short:"p"`
	LogFormat       string `default:"console"     help:"Log output format: json or console"`
	RateLimitMax    int    `default:"4"           help:"Submissions allowed per client per window"`
	RateLimitWindow string `default:"24h"         help:"Length of the rate limit window"`
	SweepInterval   string `default:"10m"         help:"How often expired rate limit windows are evicted"`
	MaxKeys         int    `default:"0"           help:"Maximum clients tracked at once, 0 for unlimited"`
	TrustProxy      bool   `default:"false"       help:"Key clients by X-Forwarded-For / X-Real-IP"`
	RefundInvalid   bool   `default:"true"        help:"Return the quota of submissions that fail validation"`
	RelayPerMinute  int    `default:"30"          help:"Outbound emails per minute, 0 for unlimited"`
	RelayBurst      int    `default:"5"           help:"Outbound emails allowed in a burst"`
	RedisAddr       string `default:""            help:"Redis address for the audit event stream"            short:"r"`
	DatabaseURL     string `default:""            help:"Postgres DSN for the audit store"`
}

// Redis owns the shared client so the injector can close it.
type Redis struct {
	Client *redis.Client
}

func (r *Redis) Shutdown() error {
	return r.Client.Close()
}

// Postgres owns the shared pool so the injector can close it.
type Postgres struct {
	Pool *pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	p.Pool.Close()

	return nil
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

func ConfigPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*config.Relay, error) {
		opts := do.MustInvoke[*Options](i)

		return config.Load(opts.Config)
	})
}

// RedisPackage provides the Redis client. It is only invoked when an
// address is configured.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})

		return &Redis{Client: client}, nil
	})
}

// PostgresPackage provides the pgx pool. It is only invoked when a DSN is
// configured.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}

		return &Postgres{Pool: pool}, nil
	})
}
