// Command dbcheck verifies that the configured PostgreSQL database is
// reachable and reports whether the catalog schema is present.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"product-compare/internal/config"
	"product-compare/internal/database"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var cfg config.DatabaseConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return errors.Wrap(err, "failed to process database configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg, zerolog.Nop())
	if err != nil {
		return errors.Wrap(err, "unable to connect to database")
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return errors.Wrap(err, "query current database")
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	for _, table := range []string{"products", "api_keys"} {
		var exists bool
		if err := pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists); err != nil {
			return errors.Wrapf(err, "check table %s", table)
		}
		fmt.Printf("  %-10s %v\n", table, exists)
	}

	return nil
}
