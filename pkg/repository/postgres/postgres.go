package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/utils/safe"
)

// Client is the PostgreSQL-backed persistence layer. It implements both
// the binding repository and the delivery store so multi-process
// deployments (web server + sweep worker) share state.
type Client struct {
	db       *sql.DB
	resolver HandlerResolver
}

// HandlerResolver re-attaches automation handlers to bindings loaded from
// the database. Handlers are process-level registrations and are not
// persisted.
type HandlerResolver func(id types.AutomationID) model.Handler

type Option func(*Client)

func WithHandlerResolver(resolver HandlerResolver) Option {
	return func(x *Client) {
		x.resolver = resolver
	}
}

func New(ctx context.Context, dsn string, options ...Option) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database")
	}

	if err := db.PingContext(ctx); err != nil {
		safe.Close(db)
		return nil, goerr.Wrap(err, "failed to connect database")
	}

	client := &Client{db: db}
	for _, opt := range options {
		opt(client)
	}

	if err := client.migrate(ctx); err != nil {
		safe.Close(db)
		return nil, err
	}

	return client, nil
}

func (x *Client) Close() {
	safe.Close(x.db)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS bindings (
		id         TEXT PRIMARY KEY,
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS deliveries (
		seq         BIGSERIAL PRIMARY KEY,
		id          TEXT NOT NULL UNIQUE,
		binding_id  TEXT NOT NULL,
		event       TEXT NOT NULL,
		payload     BYTEA NOT NULL,
		received_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deliveries_binding ON deliveries (binding_id)`,
}

func (x *Client) migrate(ctx context.Context) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin migration transaction")
	}
	defer safe.Rollback(tx)

	for _, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to run migration", goerr.V("stmt", stmt))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit migration")
	}

	return nil
}
