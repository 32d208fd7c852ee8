package service

import (
	"context"
	"strconv"

	"product-compare/internal/cache"
	"product-compare/internal/model"
	"product-compare/internal/repository"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	cache       *cache.PageCache
	samples     SampleSource
	validator   *productValidator
	group       singleflight.Group
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	pageCache *cache.PageCache,
	samples SampleSource,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		cache:       pageCache,
		samples:     samples,
		validator:   newProductValidator(),
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// ListPage serves from the cache when possible. Concurrent misses for the
// same page share one store query.
func (s *productService) ListPage(ctx context.Context, page, size int) (*model.PagedProducts, error) {
	if err := validatePage(page, size); err != nil {
		return nil, err
	}

	key := cache.Key{Page: page, Size: size}
	cached, gen, ok := s.cache.Get(key)
	if ok {
		s.logger.Debug().Int("page", page).Int("size", size).Msg("listing cache hit")
		return cached, nil
	}

	// The generation is part of the flight key so a caller arriving after a
	// mutation never joins a query started before it.
	flight := strconv.Itoa(page) + "-" + strconv.Itoa(size) + "-" + strconv.FormatUint(gen, 10)
	v, err, shared := s.group.Do(flight, func() (any, error) {
		products, total, err := s.productRepo.FindPage(context.WithoutCancel(ctx), page-1, size)
		if err != nil {
			return nil, err
		}

		result := model.NewPagedProducts(products, page, size, total)
		s.cache.Put(key, gen, result)
		return result, nil
	})
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", page).
			Int("size", size).
			Msg("failed to list products")
		return nil, errors.Wrap(err, "failed to list products")
	}

	s.logger.Debug().
		Int("page", page).
		Int("size", size).
		Bool("shared", shared).
		Msg("listing cache miss")

	return v.(*model.PagedProducts), nil
}

// AdvancedSearch validates criteria before touching the store.
func (s *productService) AdvancedSearch(ctx context.Context, page, size int, criteria model.SearchCriteria) (*model.PagedProducts, error) {
	criteria, err := ValidateCriteria(criteria)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected search criteria")
		return nil, err
	}
	if err := validatePage(page, size); err != nil {
		return nil, err
	}

	products, total, err := s.productRepo.FindFiltered(ctx, criteria, page-1, size)
	if err != nil {
		s.logger.Error().Err(err).
			Int("page", page).
			Int("size", size).
			Str("sort_by", criteria.SortBy).
			Str("sort_dir", criteria.SortDir).
			Msg("failed to search products")
		return nil, errors.Wrap(err, "failed to search products")
	}

	return model.NewPagedProducts(products, page, size, total), nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, errors.Wrap(err, "failed to get product")
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.NewProductNotFoundError(id)
	}

	return product, nil
}

// Compare resolves every id or fails naming the missing ones.
func (s *productService) Compare(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, model.ErrEmptyIDList
	}

	unique := dedupe(ids)

	products, err := s.productRepo.FindAllByID(ctx, unique)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(unique)).Msg("failed to get products by IDs")
		return nil, errors.Wrap(err, "failed to get products")
	}

	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var missing []int64
	ordered := make([]model.Product, 0, len(unique))
	for _, id := range unique {
		p, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, p)
	}

	if len(missing) > 0 {
		s.logger.Debug().
			Int("requested", len(unique)).
			Int("found", len(products)).
			Msg("comparison has missing products")
		return nil, model.NewMissingProductsError(missing)
	}

	return ordered, nil
}

// dedupe keeps the first occurrence of each id.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Create validates and stores a new product.
func (s *productService) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := s.validator.Validate(product); err != nil {
		return nil, err
	}

	in := *product
	in.ID = 0

	created, err := s.productRepo.Save(ctx, &in)
	if err != nil {
		s.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return nil, errors.Wrap(err, "failed to create product")
	}
	s.cache.Invalidate()

	s.logger.Info().Int64("product_id", created.ID).Msg("product created")
	return created, nil
}

// Update overwrites an existing product; the id argument wins over any id in the body.
func (s *productService) Update(ctx context.Context, id int64, product *model.Product) (*model.Product, error) {
	if err := s.validator.Validate(product); err != nil {
		return nil, err
	}

	in := *product
	in.ID = id

	updated, err := s.productRepo.Save(ctx, &in)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to update product")
		return nil, errors.Wrap(err, "failed to update product")
	}
	if updated == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	s.cache.Invalidate()

	s.logger.Info().Int64("product_id", id).Msg("product updated")
	return updated, nil
}

// Delete removes a product; a missing id is not an error.
func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.DeleteByID(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return errors.Wrap(err, "failed to delete product")
	}
	s.cache.Invalidate()

	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

// DeleteAll empties the catalog.
func (s *productService) DeleteAll(ctx context.Context) error {
	if err := s.productRepo.DeleteAll(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete all products")
		return errors.Wrap(err, "failed to delete all products")
	}
	s.cache.Invalidate()

	s.logger.Warn().Msg("catalog emptied")
	return nil
}

// LoadSamples appends the sample catalog.
func (s *productService) LoadSamples(ctx context.Context) (int, error) {
	products, err := s.sampleProducts(ctx)
	if err != nil {
		return 0, err
	}

	saved, err := s.productRepo.SaveAll(ctx, products)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load sample products")
		return 0, errors.Wrap(err, "failed to load sample products")
	}
	s.cache.Invalidate()

	s.logger.Info().Int("count", len(saved)).Msg("sample products loaded")
	return len(saved), nil
}

// ResetCatalog swaps the catalog for the samples atomically.
func (s *productService) ResetCatalog(ctx context.Context) (int, error) {
	products, err := s.sampleProducts(ctx)
	if err != nil {
		return 0, err
	}

	saved, err := s.productRepo.ReplaceAll(ctx, products)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to reset catalog")
		return 0, errors.Wrap(err, "failed to reset catalog")
	}
	s.cache.Invalidate()

	s.logger.Warn().Int("count", len(saved)).Msg("catalog reset to samples")
	return len(saved), nil
}

// sampleProducts fetches and validates the sample catalog.
func (s *productService) sampleProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.samples.Products(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read sample catalog")
		return nil, errors.Wrap(err, "failed to read sample catalog")
	}

	for i := range products {
		if err := s.validator.Validate(&products[i]); err != nil {
			// an invalid sample file is a server fault, not a caller error
			return nil, errors.Errorf("sample product %d (%s): %s", i, products[i].Name, err.Error())
		}
	}
	return products, nil
}
