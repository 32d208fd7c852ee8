package catalog

import (
	"context"

	"product-compare/internal/model"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
)

// Source supplies the sample catalog for bulk loads.
type Source struct {
	loader Loader
	path   string
	logger zerolog.Logger
}

// NewSource returns a Source reading path through loader. An empty path or a
// nil loader yields the built-in samples.
func NewSource(loader Loader, path string, logger zerolog.Logger) *Source {
	return &Source{
		loader: loader,
		path:   path,
		logger: logger.With().Str("component", "catalog-source").Logger(),
	}
}

// Products returns the catalog to load.
func (s *Source) Products(ctx context.Context) ([]model.Product, error) {
	if s.loader == nil || s.path == "" {
		s.logger.Debug().Msg("using built-in sample catalog")
		return Defaults(), nil
	}

	products, err := s.loader.Load(ctx, s.path)
	if err != nil {
		return nil, errors.Wrap(err, "load sample catalog")
	}
	if len(products) == 0 {
		return nil, errors.Errorf("sample catalog %s is empty", s.path)
	}
	return products, nil
}
