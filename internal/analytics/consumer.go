package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/contact-relay/internal/messaging"
	"go.uber.org/zap"
)

// NewConsumers returns one consumer per audit topic, each persisting into store.
func NewConsumers(subscriber message.Subscriber, store Store, logger *zap.Logger) []messaging.Runnable {
	return []messaging.Runnable{
		messaging.NewConsumer[ContactRelayedEvent](subscriber, TopicContactRelayed, store.SaveContactRelayed, logger),
		messaging.NewConsumer[ContactRejectedEvent](subscriber, TopicContactRejected, store.SaveContactRejected, logger),
	}
}
