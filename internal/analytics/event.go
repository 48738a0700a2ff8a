package analytics

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicContactRelayed  = "contact.relayed"
	TopicContactRejected = "contact.rejected"
)

// RejectReason explains why a submission did not reach the mailbox.
type RejectReason string

const (
	ReasonRateLimited    RejectReason = "rate_limited"
	ReasonInvalid        RejectReason = "invalid"
	ReasonDeliveryFailed RejectReason = "delivery_failed"
)

// ContactRelayedEvent is emitted after a message was handed to the relay.
type ContactRelayedEvent struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Email     string    `json:"email"`
	Language  string    `json:"language,omitempty"`
	ClientKey string    `json:"clientKey"`
	RelayedAt time.Time `json:"relayedAt"`
}

// ContactRejectedEvent is emitted when a submission is refused or fails.
type ContactRejectedEvent struct {
	ID         string       `json:"id"`
	Reason     RejectReason `json:"reason"`
	ClientKey  string       `json:"clientKey"`
	Detail     string       `json:"detail,omitempty"`
	RejectedAt time.Time    `json:"rejectedAt"`
}

// NewContactRelayedEvent creates a new relayed event with a fresh ID.
func NewContactRelayedEvent(reference, clientKey string, at time.Time) *ContactRelayedEvent {
	return &ContactRelayedEvent{
		ID:        uuid.NewString(),
		Reference: reference,
		ClientKey: clientKey,
		RelayedAt: at.UTC(),
	}
}

// NewContactRejectedEvent creates a new rejected event with a fresh ID.
func NewContactRejectedEvent(reason RejectReason, clientKey, detail string, at time.Time) *ContactRejectedEvent {
	return &ContactRejectedEvent{
		ID:         uuid.NewString(),
		Reason:     reason,
		ClientKey:  clientKey,
		Detail:     detail,
		RejectedAt: at.UTC(),
	}
}
