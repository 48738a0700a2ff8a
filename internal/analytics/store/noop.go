package store

import (
	"context"

	"github.com/serroba/contact-relay/internal/analytics"
	"go.uber.org/zap"
)

// Noop logs audit events instead of persisting them.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new store that only logs events.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveContactRelayed(_ context.Context, event *analytics.ContactRelayedEvent) error {
	n.logger.Info("contact relayed",
		zap.String("reference", event.Reference),
		zap.String("country", event.Country),
		zap.String("clientKey", event.ClientKey),
		zap.Time("relayedAt", event.RelayedAt),
	)

	return nil
}

func (n *Noop) SaveContactRejected(_ context.Context, event *analytics.ContactRejectedEvent) error {
	n.logger.Info("contact rejected",
		zap.String("reason", string(event.Reason)),
		zap.String("clientKey", event.ClientKey),
		zap.Time("rejectedAt", event.RejectedAt),
	)

	return nil
}

// Compile-time check.
var _ analytics.Store = (*Noop)(nil)
