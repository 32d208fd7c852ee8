package database

import (
	"context"
	_ "embed"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for the catalog and API key tables.
func Schema() string {
	return schemaSQL
}

// EnsureSchema creates the tables if they do not exist. The DDL is idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	logger.Info().Msg("database schema ensured")
	return nil
}
