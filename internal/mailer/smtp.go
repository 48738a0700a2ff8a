package mailer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
)

const (
	defaultSMTPPort    = 465
	defaultSMTPTimeout = 15 * time.Second
	referenceHeader    = "X-Contact-Reference"
)

// SMTPConfig holds the relay account settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPMailer relays messages over implicit-TLS SMTP with plain auth.
type SMTPMailer struct {
	mu     sync.Mutex
	client *mail.Client
}

// NewSMTPMailer creates a mailer for the configured relay. No connection is
// made until the first Send.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Port == 0 {
		cfg.Port = defaultSMTPPort
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultSMTPTimeout
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{client: client}, nil
}

// Send validates the message addresses and delivers it over a fresh
// connection.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	email, err := buildMsg(msg)
	if err != nil {
		return err
	}

	// one connection at a time per relay account
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}

	return nil
}

func buildMsg(msg *Message) (*mail.Msg, error) {
	email := mail.NewMsg()

	if err := email.From(msg.From); err != nil {
		return nil, fmt.Errorf("%w: from %q: %w", ErrInvalidAddress, msg.From, err)
	}

	if err := email.ReplyTo(msg.ReplyTo); err != nil {
		return nil, fmt.Errorf("%w: reply-to %q: %w", ErrInvalidAddress, msg.ReplyTo, err)
	}

	if err := email.To(msg.To); err != nil {
		return nil, fmt.Errorf("%w: to %q: %w", ErrInvalidAddress, msg.To, err)
	}

	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextPlain, msg.Body)

	if msg.Reference != "" {
		email.SetGenHeader(referenceHeader, msg.Reference)
	}

	return email, nil
}
