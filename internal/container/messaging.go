package container

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/contact-relay/internal/analytics"
	analyticsstore "github.com/serroba/contact-relay/internal/analytics/store"
	"github.com/serroba/contact-relay/internal/messaging"
	"go.uber.org/zap"
)

const auditConsumerGroup = "contact-audit"

// TransportPackage selects the event transport: Redis Streams when a Redis
// address is configured, an in-process channel otherwise.
func TransportPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (watermill.LoggerAdapter, error) {
		return messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		return messaging.NewInMemoryPubSub(do.MustInvoke[watermill.LoggerAdapter](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (message.Publisher, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		}

		return messaging.NewRedisPublisher(
			do.MustInvoke[*Redis](i).Client,
			do.MustInvoke[watermill.LoggerAdapter](i),
		)
	})

	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		}

		return messaging.NewRedisSubscriber(
			do.MustInvoke[*Redis](i).Client,
			auditConsumerGroup,
			do.MustInvoke[watermill.LoggerAdapter](i),
		)
	})
}

func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		return messaging.NewPublisherGroup(do.MustInvoke[message.Publisher](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*analytics.Publisher, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return analytics.NewPublisher(group.Publisher(), do.MustInvoke[*zap.Logger](i)), nil
	})
}

func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DatabaseURL == "" {
			return analyticsstore.NewNoop(logger), nil
		}

		pg := analyticsstore.NewPostgres(do.MustInvoke[*Postgres](i).Pool)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}

		return pg, nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		sub := do.MustInvoke[message.Subscriber](i)
		logger := do.MustInvoke[*zap.Logger](i)

		group := messaging.NewConsumerGroup(sub, logger)
		for _, c := range analytics.NewConsumers(sub, do.MustInvoke[analytics.Store](i), logger) {
			group.Add(c)
		}

		return group, nil
	})
}
