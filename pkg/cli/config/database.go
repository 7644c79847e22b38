package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ghsync/pkg/repository/postgres"
	"github.com/urfave/cli/v3"
)

// Database selects the persistence backend. Without a DSN the process
// falls back to the in-memory stores.
type Database struct {
	dsn string
}

func (x *Database) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-dsn",
			Usage:       "PostgreSQL DSN (empty: in-memory stores)",
			Category:    "Database",
			Destination: &x.dsn,
			Sources:     cli.EnvVars("GHSYNC_DB_DSN"),
		},
	}
}

// NewClient returns nil without error when no DSN is configured.
func (x *Database) NewClient(ctx context.Context, options ...postgres.Option) (*postgres.Client, error) {
	if x.dsn == "" {
		return nil, nil
	}

	return postgres.New(ctx, x.dsn, options...)
}

func (x *Database) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("DSN.len", len(x.dsn)),
	)
}
