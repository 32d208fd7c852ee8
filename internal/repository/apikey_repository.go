package repository

import (
	"context"

	"product-compare/internal/model"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const apiKeyColumns = "id, key_hash, role, active, expires_at, created_at"

// apiKeyRepository implements APIKeyRepository using PostgreSQL.
type apiKeyRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAPIKeyRepository creates a new PostgreSQL-backed API key repository.
func NewAPIKeyRepository(pool *pgxpool.Pool, logger zerolog.Logger) APIKeyRepository {
	return &apiKeyRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "api_key").Logger(),
	}
}

// Create stores a new API key.
func (r *apiKeyRepository) Create(ctx context.Context, key *model.APIKey) (*model.APIKey, error) {
	query := `
		INSERT INTO api_keys (key_hash, role, active, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + apiKeyColumns

	rows, err := r.pool.Query(ctx, query, key.KeyHash, key.Role, key.Active, key.ExpiresAt)
	if err != nil {
		r.logger.Error().Err(err).Str("role", string(key.Role)).Msg("failed to insert api key")
		return nil, errors.Wrap(err, "failed to insert api key")
	}

	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.APIKey])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan api key")
		return nil, errors.Wrap(err, "failed to scan api key")
	}

	return &created, nil
}

// FindByHash looks up an API key by its hash.
func (r *apiKeyRepository) FindByHash(ctx context.Context, keyHash string) (*model.APIKey, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, keyHash)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query api key")
		return nil, errors.Wrap(err, "failed to query api key")
	}

	key, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.APIKey])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to scan api key")
		return nil, errors.Wrap(err, "failed to scan api key")
	}

	return &key, nil
}
