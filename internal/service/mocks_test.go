package service

import (
	"context"

	"product-compare/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllByID(ctx context.Context, ids []int64) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) FindPage(ctx context.Context, pageIndex, pageSize int) ([]model.Product, int64, error) {
	args := m.Called(ctx, pageIndex, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) FindFiltered(ctx context.Context, criteria model.SearchCriteria, pageIndex, pageSize int) ([]model.Product, int64, error) {
	args := m.Called(ctx, criteria, pageIndex, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, product *model.Product) (*model.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) SaveAll(ctx context.Context, products []model.Product) ([]model.Product, error) {
	args := m.Called(ctx, products)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProductRepository) ReplaceAll(ctx context.Context, products []model.Product) ([]model.Product, error) {
	args := m.Called(ctx, products)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

// MockAPIKeyRepository is a mock implementation of APIKeyRepository.
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *model.APIKey) (*model.APIKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) FindByHash(ctx context.Context, keyHash string) (*model.APIKey, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APIKey), args.Error(1)
}

// stubSamples returns a fixed catalog.
type stubSamples struct {
	products []model.Product
	err      error
}

func (s stubSamples) Products(context.Context) ([]model.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}
