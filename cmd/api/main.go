package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"product-compare/internal/cache"
	"product-compare/internal/catalog"
	"product-compare/internal/clock"
	"product-compare/internal/config"
	"product-compare/internal/database"
	"product-compare/internal/handler"
	"product-compare/internal/health"
	"product-compare/internal/middleware"
	"product-compare/internal/repository"
	"product-compare/internal/router"
	"product-compare/internal/service"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("env", cfg.AppEnv).Msg("starting product-compare API server")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	defer pool.Close()

	if cfg.Database.EnsureSchema {
		if err := database.EnsureSchema(ctx, pool, logger); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}

	productRepo := repository.NewProductRepository(pool, logger)
	apiKeyRepo := repository.NewAPIKeyRepository(pool, logger)

	samples := catalog.NewSource(newCatalogLoader(ctx, cfg.Catalog, logger), cfg.Catalog.FilePath, logger)

	pageCache := cache.NewPageCache(logger)
	pageCache.StartSweeper(ctx, cfg.Cache.SweepInterval)

	productService := service.NewProductService(productRepo, pageCache, samples, logger)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, cfg.Auth.Pepper, cfg.Auth.UserTTL, clock.System(), logger)

	if cfg.IsDevelopment() {
		rootKey, err := apiKeyService.IssueRootKey(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to issue development root key")
		}
		logger.Warn().Str("root_key", rootKey.Key).Msg("development root API key issued")
	}

	hc := health.New()
	hc.AddLivenessCheck("goroutines", cfg.Health.Timeout, health.GoroutineCountCheck(cfg.Health.MaxGoroutines))
	hc.AddReadinessCheck("database", cfg.Health.Timeout, health.PingCheck(pool))
	hc.Start(ctx, cfg.Health.Interval)
	defer hc.Stop()

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		})
		limiter.StartSweeper(ctx)
	}

	mux := router.New(router.Deps{
		Products:  handler.NewProductHandler(productService, logger),
		Keys:      handler.NewAPIKeyHandler(apiKeyService, logger),
		Root:      handler.NewRootHandler(productService, pageCache, logger),
		Auth:      apiKeyService,
		Health:    hc,
		RateLimit: limiter,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()
	hc.SetReady(true)

	select {
	case err := <-serverErrors:
		return errors.Wrap(err, "server error")

	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")
		hc.SetReady(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return errors.Wrap(err, "server shutdown failed")
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newCatalogLoader reads catalog files from S3 with a local fallback when S3
// is enabled, otherwise from the local file system only.
func newCatalogLoader(ctx context.Context, cfg config.CatalogConfig, logger zerolog.Logger) catalog.Loader {
	fileLoader := catalog.NewFileLoader(logger)
	if !cfg.S3.Enabled {
		logger.Info().Msg("using local file system for catalog files (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}
	return catalog.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)
}
