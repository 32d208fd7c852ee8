package catalog

import (
	"context"

	"product-compare/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
)

// objectGetter is the subset of the S3 client used by the loader.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader implements Loader for catalog files stored in AWS S3.
type s3Loader struct {
	client objectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based catalog loader using the default AWS
// credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-catalog-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, errors.Wrap(err, "load AWS configuration")
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 loader initialised")

	return newS3Loader(s3.NewFromConfig(cfg), bucket, logger), nil
}

func newS3Loader(client objectGetter, bucket string, logger zerolog.Logger) *s3Loader {
	return &s3Loader{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Load reads a catalog object. key is the full S3 key including any prefix.
func (l *s3Loader) Load(ctx context.Context, key string) ([]model.Product, error) {
	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Msg("loading catalog from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, errors.Wrapf(err, "get object from S3 (bucket=%s, key=%s)", l.bucket, key)
	}
	defer result.Body.Close()

	products, err := decode(ctx, result.Body, isGzip(key))
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to read catalog from S3")
		return nil, errors.Wrapf(err, "read S3 object %s", key)
	}

	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Int("products_loaded", len(products)).
		Msg("catalog loaded from S3")

	return products, nil
}

// fallbackLoader tries S3 first, then the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	logger     zerolog.Logger
}

// NewFallbackLoader creates a loader that tries S3 first and falls back to the
// local file system. A nil s3Loader means local files only.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		logger:     logger.With().Str("component", "fallback-loader").Logger(),
	}
}

// Load prefixes path with the S3 prefix for the S3 attempt and uses it as-is
// for the local fallback.
func (l *fallbackLoader) Load(ctx context.Context, path string) ([]model.Product, error) {
	if l.s3Loader != nil {
		s3Key := l.s3Prefix + path

		products, err := l.s3Loader.Load(ctx, s3Key)
		if err == nil {
			return products, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", s3Key).
			Str("local_fallback", path).
			Msg("S3 load failed, falling back to local file")
	}

	return l.fileLoader.Load(ctx, path)
}
