package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/contact-relay/internal/analytics"
)

const schema = `
CREATE TABLE IF NOT EXISTS contact_relayed (
	id          UUID PRIMARY KEY,
	reference   TEXT NOT NULL,
	name        TEXT NOT NULL,
	country     TEXT NOT NULL,
	email       TEXT NOT NULL,
	language    TEXT,
	client_key  TEXT NOT NULL,
	relayed_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_rejected (
	id          UUID PRIMARY KEY,
	reason      TEXT NOT NULL,
	client_key  TEXT NOT NULL,
	detail      TEXT,
	rejected_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS contact_rejected_client_key_idx ON contact_rejected (client_key, rejected_at);
`

// Postgres persists audit events. Inserts are idempotent on the event ID so
// redelivered messages are harmless.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new store on pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the audit tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate audit schema: %w", err)
	}

	return nil
}

// SaveContactRelayed inserts event, ignoring duplicates of the same ID.
func (p *Postgres) SaveContactRelayed(ctx context.Context, event *analytics.ContactRelayedEvent) error {
	query := `
		INSERT INTO contact_relayed (id, reference, name, country, email, language, client_key, relayed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		event.Reference,
		event.Name,
		event.Country,
		event.Email,
		nullableString(event.Language),
		event.ClientKey,
		event.RelayedAt,
	)

	return err
}

func (p *Postgres) SaveContactRejected(ctx context.Context, event *analytics.ContactRejectedEvent) error {
	query := `
		INSERT INTO contact_rejected (id, reason, client_key, detail, rejected_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.ID,
		string(event.Reason),
		event.ClientKey,
		nullableString(event.Detail),
		event.RejectedAt,
	)

	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// Compile-time check.
var _ analytics.Store = (*Postgres)(nil)
