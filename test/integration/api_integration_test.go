package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"product-compare/internal/cache"
	"product-compare/internal/catalog"
	"product-compare/internal/clock"
	"product-compare/internal/handler"
	"product-compare/internal/model"
	"product-compare/internal/repository"
	"product-compare/internal/router"
	"product-compare/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	http.Handler
	rootKey string
	userKey string
	cache   *cache.PageCache
}

func setupTestServer(t *testing.T, testDB *TestDB) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	ctx := context.Background()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	apiKeyRepo := repository.NewAPIKeyRepository(testDB.Pool, logger)

	pageCache := cache.NewPageCache(logger)
	samples := catalog.NewSource(nil, "", logger)

	productService := service.NewProductService(productRepo, pageCache, samples, logger)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, "test-pepper", time.Hour, clock.System(), logger)

	rootKey, err := apiKeyService.IssueRootKey(ctx)
	require.NoError(t, err)
	userKey, err := apiKeyService.IssueUserKey(ctx)
	require.NoError(t, err)

	mux := router.New(router.Deps{
		Products: handler.NewProductHandler(productService, logger),
		Keys:     handler.NewAPIKeyHandler(apiKeyService, logger),
		Root:     handler.NewRootHandler(productService, pageCache, logger),
		Auth:     apiKeyService,
		Logger:   logger,
	})

	return &testServer{Handler: mux, rootKey: rootKey.Key, userKey: userKey.Key, cache: pageCache}
}

func (s *testServer) do(t *testing.T, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-KEY", key)
	}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func names(products []model.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestProductAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	seeded := SeedProducts(t, testDB.Pool)
	server := setupTestServer(t, testDB)

	t.Run("List pages through the catalog in id order", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/products?page=1&size=2", server.userKey, nil)
		require.Equal(t, http.StatusOK, w.Code)

		page := decode[model.PagedProducts](t, w)
		assert.Equal(t, []string{"Alpha Phone", "Beta Laptop"}, names(page.Products))
		assert.EqualValues(t, 5, page.Pagination.TotalElements)
		assert.Equal(t, 3, page.Pagination.TotalPages)
		assert.False(t, page.Pagination.IsLast)

		w = server.do(t, http.MethodGet, "/api/products?page=3&size=2", server.userKey, nil)
		page = decode[model.PagedProducts](t, w)
		assert.Len(t, page.Products, 1)
		assert.True(t, page.Pagination.IsLast)
	})

	t.Run("Page past the end is empty", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/products?page=9&size=2", server.userKey, nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[model.PagedProducts](t, w)
		assert.Empty(t, page.Products)
		assert.True(t, page.Pagination.IsLast)
	})

	t.Run("Invalid page size", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/products?size=101", server.userKey, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Get by id", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/products/"+strconv.FormatInt(seeded[1].ID, 10), server.userKey, nil)
		require.Equal(t, http.StatusOK, w.Code)
		p := decode[model.Product](t, w)
		assert.Equal(t, "Beta Laptop", p.Name)
		assert.Equal(t, "1299", p.Price.String())
	})

	t.Run("Get missing id", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/products/999", server.userKey, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		resp := decode[model.ErrorResponse](t, w)
		assert.Equal(t, "Product with ID 999 not found", resp.Details)
		assert.Equal(t, "/api/products/999", resp.Path)
	})

	t.Run("Advanced search filters and sorts", func(t *testing.T) {
		w := server.do(t, http.MethodGet,
			"/api/products/advancedSearch?name=PHONE&sortBy=price&sortDir=desc&minRating=3.5", server.userKey, nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[model.PagedProducts](t, w)
		assert.Equal(t, []string{"Gamma Phone Pro", "Alpha Phone"}, names(page.Products))
		assert.EqualValues(t, 2, page.Pagination.TotalElements)
	})

	t.Run("Advanced search price range", func(t *testing.T) {
		w := server.do(t, http.MethodGet,
			"/api/products/advancedSearch?minPrice=100&maxPrice=900", server.userKey, nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[model.PagedProducts](t, w)
		assert.Equal(t, []string{"Alpha Phone", "Gamma Phone Pro", "Epsilon Tablet"}, names(page.Products))
	})

	t.Run("Advanced search rejects bad criteria", func(t *testing.T) {
		cases := map[string]string{
			"sortBy=color":           "Invalid sorting criteria",
			"sortDir=up":             "Invalid sorting direction. Use 'asc' or 'desc'",
			"minPrice=0":             "Minimum price should be greater than zero",
			"minPrice=10&maxPrice=5": "Maximum price should be greater than minimum price",
			"minRating=6":            "Rating should be between 0 and 5",
		}
		for query, details := range cases {
			w := server.do(t, http.MethodGet, "/api/products/advancedSearch?"+query, server.userKey, nil)
			require.Equal(t, http.StatusBadRequest, w.Code, query)
			assert.Equal(t, details, decode[model.ErrorResponse](t, w).Details, query)
		}
	})

	t.Run("Compare keeps request order", func(t *testing.T) {
		path := "/api/products/compare?ids=" + strconv.FormatInt(seeded[2].ID, 10) + "," + strconv.FormatInt(seeded[0].ID, 10)
		w := server.do(t, http.MethodGet, path, server.userKey, nil)
		require.Equal(t, http.StatusOK, w.Code)
		products := decode[[]model.Product](t, w)
		assert.Equal(t, []string{"Gamma Phone Pro", "Alpha Phone"}, names(products))
	})

	t.Run("Compare is all or nothing", func(t *testing.T) {
		path := "/api/products/compare?ids=" + strconv.FormatInt(seeded[0].ID, 10) + ",404,405"
		w := server.do(t, http.MethodGet, path, server.userKey, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Could not find all products. Missing IDs: [404, 405]", decode[model.ErrorResponse](t, w).Details)
	})

	t.Run("Compare without ids", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/products/compare", server.userKey, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ID list should not be empty", decode[model.ErrorResponse](t, w).Details)
	})
}

func TestListingCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	seeded := SeedProducts(t, testDB.Pool)
	server := setupTestServer(t, testDB)

	list := func() model.PagedProducts {
		w := server.do(t, http.MethodGet, "/api/products?page=1&size=10", server.userKey, nil)
		require.Equal(t, http.StatusOK, w.Code)
		return decode[model.PagedProducts](t, w)
	}

	first := list()
	require.Len(t, first.Products, 5)
	list()
	assert.EqualValues(t, 1, server.cache.Stats().Hits)

	t.Run("Create is visible on the next listing", func(t *testing.T) {
		w := server.do(t, http.MethodPost, "/api/products", server.rootKey, testProduct("Zeta Watch", "249.00", 4.0))
		require.Equal(t, http.StatusCreated, w.Code)
		created := decode[model.Product](t, w)
		assert.NotZero(t, created.ID)

		assert.Len(t, list().Products, 6)
	})

	t.Run("Update is visible on the next listing", func(t *testing.T) {
		updated := testProduct("Alpha Phone 2", "209.99", 4.2)
		w := server.do(t, http.MethodPut, "/api/products/"+strconv.FormatInt(seeded[0].ID, 10), server.rootKey, updated)
		require.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, "Alpha Phone 2", list().Products[0].Name)
	})

	t.Run("Delete is visible on the next listing and idempotent", func(t *testing.T) {
		path := "/api/products/" + strconv.FormatInt(seeded[4].ID, 10)
		require.Equal(t, http.StatusNoContent, server.do(t, http.MethodDelete, path, server.rootKey, nil).Code)
		require.Equal(t, http.StatusNoContent, server.do(t, http.MethodDelete, path, server.rootKey, nil).Code)

		assert.Len(t, list().Products, 5)
	})

	t.Run("Invalid create leaves the catalog untouched", func(t *testing.T) {
		bad := testProduct("Broken", "10.00", 9)
		w := server.do(t, http.MethodPost, "/api/products", server.rootKey, bad)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Validation error", decode[model.ErrorResponse](t, w).Message)

		assert.Len(t, list().Products, 5)
	})

	t.Run("Concurrent readers during writes see consistent pages", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%5 == 0 {
					server.do(t, http.MethodPost, "/api/products", server.rootKey, testProduct("Batch "+strconv.Itoa(i), "10.00", 3))
					return
				}
				w := server.do(t, http.MethodGet, "/api/products?page=1&size=50", server.userKey, nil)
				assert.Equal(t, http.StatusOK, w.Code)
			}(i)
		}
		wg.Wait()

		page := list()
		assert.EqualValues(t, 9, page.Pagination.TotalElements)
	})
}

func TestAuth_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	SeedProducts(t, testDB.Pool)
	server := setupTestServer(t, testDB)

	t.Run("Missing key", func(t *testing.T) {
		w := server.do(t, http.MethodGet, "/api/products", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Generated key can read but not write", func(t *testing.T) {
		w := server.do(t, http.MethodPost, "/api/keys/generate", "", nil)
		require.Equal(t, http.StatusCreated, w.Code)
		issued := decode[model.IssuedKey](t, w)
		assert.Equal(t, model.RoleUser, issued.Role)
		require.NotNil(t, issued.ExpiresAt)

		assert.Equal(t, http.StatusOK, server.do(t, http.MethodGet, "/api/products", issued.Key, nil).Code)
		assert.Equal(t, http.StatusForbidden,
			server.do(t, http.MethodPost, "/api/products", issued.Key, testProduct("Nope", "1.00", 1)).Code)
		assert.Equal(t, http.StatusForbidden, server.do(t, http.MethodPost, "/api/root/reset-db", issued.Key, nil).Code)
	})

	t.Run("Root resets the catalog to the samples", func(t *testing.T) {
		w := server.do(t, http.MethodPost, "/api/root/reset-db", server.rootKey, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"loaded":3}`, w.Body.String())

		w = server.do(t, http.MethodGet, "/api/products", server.userKey, nil)
		page := decode[model.PagedProducts](t, w)
		assert.EqualValues(t, 3, page.Pagination.TotalElements)
		assert.EqualValues(t, 1, page.Products[0].ID)
	})

	t.Run("Root empties the catalog", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, server.do(t, http.MethodDelete, "/api/root/products", server.rootKey, nil).Code)

		w := server.do(t, http.MethodGet, "/api/products", server.userKey, nil)
		page := decode[model.PagedProducts](t, w)
		assert.Empty(t, page.Products)
	})
}

func TestCORS_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	t.Run("OPTIONS request returns CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-API-KEY")
	})
}
