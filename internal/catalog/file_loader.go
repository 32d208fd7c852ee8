package catalog

import (
	"context"
	"os"

	"product-compare/internal/model"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
)

// fileLoader implements Loader for catalog files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalog loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads a JSON-lines catalog file, gunzipping it when the name ends in .gz.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]model.Product, error) {
	l.logger.Info().Str("file", filePath).Msg("loading catalog file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open catalog file")
		return nil, errors.Wrapf(err, "open catalog file %s", filePath)
	}
	defer file.Close()

	products, err := decode(ctx, file, isGzip(filePath))
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read catalog file")
		return nil, errors.Wrapf(err, "read catalog file %s", filePath)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("products_loaded", len(products)).
		Msg("catalog file loaded")

	return products, nil
}
