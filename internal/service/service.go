package service

import (
	"context"

	"product-compare/internal/model"
)

// MaxPageSize is the largest page a caller may request.
const MaxPageSize = 100

// ProductService defines catalog queries and mutations. Page numbers are 1-based.
type ProductService interface {
	// ListPage returns a page of the catalog ordered by id. Results are cached.
	ListPage(ctx context.Context, page, size int) (*model.PagedProducts, error)

	// AdvancedSearch returns a filtered, sorted page. Results are never cached.
	AdvancedSearch(ctx context.Context, page, size int, criteria model.SearchCriteria) (*model.PagedProducts, error)

	// GetByID retrieves a single product.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// Compare returns every requested product in request order, or a
	// not-found error listing the ids that do not exist.
	Compare(ctx context.Context, ids []int64) ([]model.Product, error)

	// Create stores a new product. Any id on the input is ignored.
	Create(ctx context.Context, product *model.Product) (*model.Product, error)

	// Update overwrites the product identified by id.
	Update(ctx context.Context, id int64, product *model.Product) (*model.Product, error)

	// Delete removes a product. Deleting a missing id succeeds.
	Delete(ctx context.Context, id int64) error

	// DeleteAll empties the catalog.
	DeleteAll(ctx context.Context) error

	// LoadSamples appends the sample catalog and returns how many were stored.
	LoadSamples(ctx context.Context) (int, error)

	// ResetCatalog replaces the whole catalog with the samples in one transaction.
	ResetCatalog(ctx context.Context) (int, error)
}

// APIKeyService issues and checks API keys.
type APIKeyService interface {
	// Authenticate resolves a raw key to a usable stored key.
	Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error)

	// IssueUserKey creates a USER key that expires after the configured TTL.
	IssueUserKey(ctx context.Context) (*model.IssuedKey, error)

	// IssueAdminKey creates an ADMIN key that never expires.
	IssueAdminKey(ctx context.Context) (*model.IssuedKey, error)

	// IssueRootKey creates a ROOT key that never expires.
	IssueRootKey(ctx context.Context) (*model.IssuedKey, error)
}

// SampleSource supplies the catalog used by LoadSamples and ResetCatalog.
type SampleSource interface {
	Products(ctx context.Context) ([]model.Product, error)
}
