package repository

import (
	"context"

	"product-compare/internal/model"
)

// ProductRepository defines the interface for product data access operations.
// Page indexes are 0-based.
type ProductRepository interface {
	// FindByID retrieves a single product. Returns nil, nil when absent.
	FindByID(ctx context.Context, id int64) (*model.Product, error)

	// FindAllByID retrieves the products whose ids are in ids, in store order.
	// Ids that do not exist are silently skipped.
	FindAllByID(ctx context.Context, ids []int64) ([]model.Product, error)

	// FindPage returns one page ordered by id together with the total row count.
	FindPage(ctx context.Context, pageIndex, pageSize int) ([]model.Product, int64, error)

	// FindFiltered returns one page matching criteria together with the total
	// number of matching rows. Criteria must already be validated.
	FindFiltered(ctx context.Context, criteria model.SearchCriteria, pageIndex, pageSize int) ([]model.Product, int64, error)

	// Save inserts the product when its ID is zero, otherwise overwrites the
	// existing row. Returns nil, nil when updating an id that does not exist.
	Save(ctx context.Context, product *model.Product) (*model.Product, error)

	// SaveAll inserts all products in a single transaction.
	SaveAll(ctx context.Context, products []model.Product) ([]model.Product, error)

	// DeleteByID removes a product. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, id int64) error

	// DeleteAll removes every product and resets the id sequence.
	DeleteAll(ctx context.Context) error

	// ReplaceAll atomically swaps the whole catalog for products.
	ReplaceAll(ctx context.Context, products []model.Product) ([]model.Product, error)
}

// APIKeyRepository defines the interface for API key persistence.
type APIKeyRepository interface {
	// Create stores a new key and returns it with its generated fields.
	Create(ctx context.Context, key *model.APIKey) (*model.APIKey, error)

	// FindByHash looks up a key by its hash. Returns nil, nil when absent.
	FindByHash(ctx context.Context, keyHash string) (*model.APIKey, error)
}
