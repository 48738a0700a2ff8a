package analytics

import "context"

// Store defines the interface for persisting audit events.
type Store interface {
	SaveContactRelayed(ctx context.Context, event *ContactRelayedEvent) error
	SaveContactRejected(ctx context.Context, event *ContactRejectedEvent) error
}
