package handler

import (
	"context"
	"net/http"

	"product-compare/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListPage(ctx context.Context, page, size int) (*model.PagedProducts, error) {
	args := m.Called(ctx, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PagedProducts), args.Error(1)
}

func (m *MockProductService) AdvancedSearch(ctx context.Context, page, size int, criteria model.SearchCriteria) (*model.PagedProducts, error) {
	args := m.Called(ctx, page, size, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PagedProducts), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Compare(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id int64, product *model.Product) (*model.Product, error) {
	args := m.Called(ctx, id, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductService) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProductService) LoadSamples(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockProductService) ResetCatalog(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockAPIKeyService is a mock implementation of APIKeyService.
type MockAPIKeyService struct {
	mock.Mock
}

func (m *MockAPIKeyService) Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error) {
	args := m.Called(ctx, rawKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) IssueUserKey(ctx context.Context) (*model.IssuedKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IssuedKey), args.Error(1)
}

func (m *MockAPIKeyService) IssueAdminKey(ctx context.Context) (*model.IssuedKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IssuedKey), args.Error(1)
}

func (m *MockAPIKeyService) IssueRootKey(ctx context.Context) (*model.IssuedKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IssuedKey), args.Error(1)
}

// withID attaches a chi {id} URL parameter to req.
func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
