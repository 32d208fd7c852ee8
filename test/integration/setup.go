package integration

import (
	"context"
	"testing"
	"time"

	"product-compare/internal/database"
	"product-compare/internal/model"
	"product-compare/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container, connects a pool with decimal
// support and applies the catalog schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.AfterConnect = database.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.EnsureSchema(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts stores a small fixed catalog and returns it with ids.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) []model.Product {
	t.Helper()

	fixture := []model.Product{
		testProduct("Alpha Phone", "199.99", 4.1),
		testProduct("Beta Laptop", "1299.00", 4.8),
		testProduct("Gamma Phone Pro", "899.50", 3.9),
		testProduct("Delta Headphones", "49.99", 4.5),
		testProduct("Epsilon Tablet", "499.00", 2.0),
	}

	saved, err := repository.NewProductRepository(pool, zerolog.Nop()).SaveAll(context.Background(), fixture)
	if err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}
	return saved
}

// CleanupDB empties the catalog and key tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE TABLE products, api_keys RESTART IDENTITY"); err != nil {
		t.Logf("failed to clean tables: %v", err)
	}
}

func testProduct(name, price string, rating float64) model.Product {
	return model.Product{
		Name:           name,
		ImageURL:       "https://example.com/" + name + ".png",
		Description:    name + " description",
		Price:          decimal.RequireFromString(price),
		Rating:         rating,
		Specifications: name + " specs",
	}
}
