package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/contact-relay/internal/messaging"
	"go.uber.org/zap"
)

// Publisher emits audit events. Failures are logged and never surface to the
// caller; auditing must not change the outcome of a submission.
type Publisher struct {
	relayed  messaging.Publish[ContactRelayedEvent]
	rejected messaging.Publish[ContactRejectedEvent]
	logger   *zap.Logger
}

// NewPublisher creates a new publisher emitting contact events on publisher.
func NewPublisher(publisher message.Publisher, logger *zap.Logger) *Publisher {
	return &Publisher{
		relayed:  messaging.NewPublishFunc[ContactRelayedEvent](publisher, TopicContactRelayed),
		rejected: messaging.NewPublishFunc[ContactRejectedEvent](publisher, TopicContactRejected),
		logger:   logger,
	}
}

// Relayed publishes event. Failures are logged, never returned.
func (p *Publisher) Relayed(ctx context.Context, event *ContactRelayedEvent) {
	if err := p.relayed(ctx, event); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", TopicContactRelayed),
			zap.String("reference", event.Reference),
			zap.Error(err),
		)
	}
}

// Rejected publishes event. Failures are logged, never returned.
func (p *Publisher) Rejected(ctx context.Context, event *ContactRejectedEvent) {
	if err := p.rejected(ctx, event); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", TopicContactRejected),
			zap.String("reason", string(event.Reason)),
			zap.Error(err),
		)
	}
}
