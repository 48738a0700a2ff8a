package mailer

import (
	"context"
	"errors"
)

var ErrInvalidAddress = errors.New("invalid email address")

// Message is a plain-text email ready to be relayed.
type Message struct {
	From      string
	ReplyTo   string
	To        string
	Subject   string
	Body      string
	Reference string
}

// Mailer delivers messages to the outbound relay.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}
