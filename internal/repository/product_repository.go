package repository

import (
	"context"

	"product-compare/internal/model"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func collectProducts(rows pgx.Rows) ([]model.Product, error) {
	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// FindByID retrieves a single product by its ID.
func (r *productRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, errors.Wrap(err, "failed to query product")
	}

	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to scan product")
		return nil, errors.Wrap(err, "failed to scan product")
	}

	return &p, nil
}

// FindAllByID retrieves multiple products by their IDs.
func (r *productRepository) FindAllByID(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, errors.Wrap(err, "failed to query products by IDs")
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan product rows")
		return nil, errors.Wrap(err, "failed to scan products")
	}

	return products, nil
}

// FindPage returns one page ordered by id.
func (r *productRepository) FindPage(ctx context.Context, pageIndex, pageSize int) ([]model.Product, int64, error) {
	return r.findPage(ctx, model.SearchCriteria{}, pageIndex, pageSize)
}

// FindFiltered returns one page of products matching criteria.
func (r *productRepository) FindFiltered(ctx context.Context, criteria model.SearchCriteria, pageIndex, pageSize int) ([]model.Product, int64, error) {
	return r.findPage(ctx, criteria, pageIndex, pageSize)
}

// findPage counts the matching rows, then fetches the requested slice. The
// data query is skipped when the page lies past the last row.
func (r *productRepository) findPage(ctx context.Context, criteria model.SearchCriteria, pageIndex, pageSize int) ([]model.Product, int64, error) {
	filter := buildFilter(criteria)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+filter.where, filter.args...).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return nil, 0, errors.Wrap(err, "failed to count products")
	}

	if total == 0 || int64(pageIndex)*int64(pageSize) >= total {
		return []model.Product{}, total, nil
	}

	limit, args := limitOffset(filter.args, pageIndex, pageSize)
	query := `SELECT ` + productColumns + ` FROM products` + filter.where + orderBy(criteria) + limit

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).
			Int("page_index", pageIndex).
			Int("page_size", pageSize).
			Msg("failed to query products")
		return nil, 0, errors.Wrap(err, "failed to query products")
	}

	products, err := collectProducts(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan product rows")
		return nil, 0, errors.Wrap(err, "failed to scan products")
	}

	return products, total, nil
}

// Save inserts or updates a single product.
func (r *productRepository) Save(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product.ID == 0 {
		p, err := insertProduct(ctx, r.pool, product)
		if err != nil {
			r.logger.Error().Err(err).Str("name", product.Name).Msg("failed to insert product")
			return nil, errors.Wrap(err, "failed to insert product")
		}
		return p, nil
	}

	query := `
		UPDATE products
		SET name = $2, image_url = $3, description = $4, price = $5, rating = $6, specifications = $7
		WHERE id = $1
		RETURNING ` + productColumns

	rows, err := r.pool.Query(ctx, query,
		product.ID, product.Name, product.ImageURL, product.Description,
		product.Price, product.Rating, product.Specifications,
	)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to update product")
		return nil, errors.Wrap(err, "failed to update product")
	}

	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to update product")
		return nil, errors.Wrap(err, "failed to update product")
	}

	return &p, nil
}

func insertProduct(ctx context.Context, q querier, product *model.Product) (*model.Product, error) {
	query := `
		INSERT INTO products (name, image_url, description, price, rating, specifications)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	rows, err := q.Query(ctx, query,
		product.Name, product.ImageURL, product.Description,
		product.Price, product.Rating, product.Specifications,
	)
	if err != nil {
		return nil, err
	}

	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Product])
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveAll inserts all products in one transaction.
func (r *productRepository) SaveAll(ctx context.Context, products []model.Product) ([]model.Product, error) {
	var saved []model.Product
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		saved, err = insertBatch(ctx, tx, products)
		return err
	})
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(products)).Msg("failed to save products")
		return nil, errors.Wrap(err, "failed to save products")
	}

	r.logger.Info().Int("count", len(saved)).Msg("products saved")
	return saved, nil
}

// ReplaceAll truncates the catalog and inserts products in the same transaction.
func (r *productRepository) ReplaceAll(ctx context.Context, products []model.Product) ([]model.Product, error) {
	var saved []model.Product
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE TABLE products RESTART IDENTITY`); err != nil {
			return errors.Wrap(err, "truncate")
		}
		var err error
		saved, err = insertBatch(ctx, tx, products)
		return err
	})
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(products)).Msg("failed to replace catalog")
		return nil, errors.Wrap(err, "failed to replace catalog")
	}

	r.logger.Info().Int("count", len(saved)).Msg("catalog replaced")
	return saved, nil
}

// insertBatch queues one INSERT per product and reads back the stored rows.
func insertBatch(ctx context.Context, tx pgx.Tx, products []model.Product) ([]model.Product, error) {
	if len(products) == 0 {
		return []model.Product{}, nil
	}

	query := `
		INSERT INTO products (name, image_url, description, price, rating, specifications)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(query, p.Name, p.ImageURL, p.Description, p.Price, p.Rating, p.Specifications)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	saved := make([]model.Product, 0, len(products))
	for range products {
		rows, err := results.Query()
		if err != nil {
			return nil, errors.Wrap(err, "batch insert")
		}
		p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.Product])
		if err != nil {
			return nil, errors.Wrap(err, "batch insert")
		}
		saved = append(saved, p)
	}

	return saved, nil
}

// DeleteByID removes a product. Missing ids are ignored.
func (r *productRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return errors.Wrap(err, "failed to delete product")
	}

	r.logger.Debug().
		Int64("product_id", id).
		Int64("rows_affected", tag.RowsAffected()).
		Msg("product delete executed")
	return nil
}

// DeleteAll truncates the products table.
func (r *productRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE TABLE products RESTART IDENTITY`); err != nil {
		r.logger.Error().Err(err).Msg("failed to truncate products")
		return errors.Wrap(err, "failed to truncate products")
	}

	r.logger.Info().Msg("products truncated")
	return nil
}

// inTx runs fn in a transaction, committing on success.
func (r *productRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		// Rollback is a no-op after a successful commit.
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}
