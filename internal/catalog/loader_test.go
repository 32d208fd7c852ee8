package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"product-compare/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/pgzip"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLines = `{"id": 99, "name": "Kindle Paperwhite", "imageUrl": "https://example.com/k.jpg", "description": "E-reader", "price": 149.99, "rating": 4.6, "specifications": "6.8in"}

{"name": "Pixel 8", "imageUrl": "https://example.com/p.jpg", "description": "Phone", "price": "699.00", "rating": 4.4, "specifications": "Tensor G3"}
`

func gzipBytes(t *testing.T, data string) []byte {
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func assertSampleProducts(t *testing.T, products []model.Product) {
	require.Len(t, products, 2)
	assert.Equal(t, int64(0), products[0].ID, "file ids are ignored")
	assert.Equal(t, "Kindle Paperwhite", products[0].Name)
	assert.True(t, decimal.RequireFromString("149.99").Equal(products[0].Price))
	assert.Equal(t, "Pixel 8", products[1].Name)
	assert.True(t, decimal.RequireFromString("699").Equal(products[1].Price))
}

func TestFileLoader_Load(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	plain := filepath.Join(dir, "catalog.jsonl")
	require.NoError(t, os.WriteFile(plain, []byte(sampleLines), 0o600))

	gz := filepath.Join(dir, "catalog.jsonl.gz")
	require.NoError(t, os.WriteFile(gz, gzipBytes(t, sampleLines), 0o600))

	loader := NewFileLoader(logger)

	t.Run("Plain file", func(t *testing.T) {
		products, err := loader.Load(context.Background(), plain)
		require.NoError(t, err)
		assertSampleProducts(t, products)
	})

	t.Run("Gzipped file", func(t *testing.T) {
		products, err := loader.Load(context.Background(), gz)
		require.NoError(t, err)
		assertSampleProducts(t, products)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := loader.Load(context.Background(), filepath.Join(dir, "nope.jsonl"))
		assert.Error(t, err)
	})

	t.Run("Malformed line", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.jsonl")
		require.NoError(t, os.WriteFile(bad, []byte("{not json}\n"), 0o600))

		_, err := loader.Load(context.Background(), bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode line 1")
	})

	t.Run("Gz suffix on plain data", func(t *testing.T) {
		fake := filepath.Join(dir, "fake.gz")
		require.NoError(t, os.WriteFile(fake, []byte(sampleLines), 0o600))

		_, err := loader.Load(context.Background(), fake)
		assert.Error(t, err)
	})
}

// fakeS3 serves objects from memory.
type fakeS3 struct {
	objects map[string][]byte
	gotKey  string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotKey = *in.Key
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Loader_Load(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{
		"catalog/samples.jsonl.gz": gzipBytes(t, sampleLines),
		"catalog/samples.jsonl":    []byte(sampleLines),
	}}
	loader := newS3Loader(client, "bucket", zerolog.Nop())

	products, err := loader.Load(context.Background(), "catalog/samples.jsonl.gz")
	require.NoError(t, err)
	assertSampleProducts(t, products)

	products, err = loader.Load(context.Background(), "catalog/samples.jsonl")
	require.NoError(t, err)
	assertSampleProducts(t, products)

	_, err = loader.Load(context.Background(), "catalog/missing.jsonl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket=bucket")
}

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, path string) ([]model.Product, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) ([]model.Product, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, path)
	}
	return nil, errors.New("not implemented")
}

func TestFallbackLoader(t *testing.T) {
	logger := zerolog.Nop()
	s3Products := []model.Product{{Name: "from-s3"}}
	localProducts := []model.Product{{Name: "from-disk"}}

	tests := []struct {
		name     string
		s3       Loader
		local    Loader
		expected string
		wantErr  bool
	}{
		{
			name: "S3 succeeds",
			s3: &mockLoader{loadFunc: func(_ context.Context, path string) ([]model.Product, error) {
				assert.Equal(t, "catalog/samples.jsonl", path, "S3 key should have prefix")
				return s3Products, nil
			}},
			local: &mockLoader{loadFunc: func(context.Context, string) ([]model.Product, error) {
				t.Error("file loader should not be called when S3 succeeds")
				return nil, errors.New("should not be called")
			}},
			expected: "from-s3",
		},
		{
			name: "S3 fails, local succeeds",
			s3: &mockLoader{loadFunc: func(context.Context, string) ([]model.Product, error) {
				return nil, errors.New("S3 connection failed")
			}},
			local: &mockLoader{loadFunc: func(_ context.Context, path string) ([]model.Product, error) {
				assert.Equal(t, "samples.jsonl", path, "local path should not have prefix")
				return localProducts, nil
			}},
			expected: "from-disk",
		},
		{
			name: "No S3 loader",
			s3:   nil,
			local: &mockLoader{loadFunc: func(context.Context, string) ([]model.Product, error) {
				return localProducts, nil
			}},
			expected: "from-disk",
		},
		{
			name: "Both fail",
			s3: &mockLoader{loadFunc: func(context.Context, string) ([]model.Product, error) {
				return nil, errors.New("S3 down")
			}},
			local: &mockLoader{loadFunc: func(context.Context, string) ([]model.Product, error) {
				return nil, errors.New("file missing")
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := NewFallbackLoader(tt.s3, tt.local, "catalog/", logger)

			products, err := fallback.Load(context.Background(), "samples.jsonl")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "file missing")
				return
			}
			require.NoError(t, err)
			require.Len(t, products, 1)
			assert.Equal(t, tt.expected, products[0].Name)
		})
	}
}

func TestSource_Products(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("No path uses defaults", func(t *testing.T) {
		products, err := NewSource(NewFileLoader(logger), "", logger).Products(context.Background())
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "Dell XPS 15 Laptop", products[0].Name)
	})

	t.Run("Loader result is returned", func(t *testing.T) {
		loader := &mockLoader{loadFunc: func(context.Context, string) ([]model.Product, error) {
			return []model.Product{{Name: "custom"}}, nil
		}}
		products, err := NewSource(loader, "custom.jsonl", logger).Products(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "custom", products[0].Name)
	})

	t.Run("Empty catalog is an error", func(t *testing.T) {
		loader := &mockLoader{loadFunc: func(context.Context, string) ([]model.Product, error) {
			return nil, nil
		}}
		_, err := NewSource(loader, "empty.jsonl", logger).Products(context.Background())
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "is empty"))
	})
}

func TestDefaults(t *testing.T) {
	products := Defaults()
	require.Len(t, products, 3)

	for _, p := range products {
		assert.Zero(t, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.ImageURL)
		assert.LessOrEqual(t, len(p.Description), 1000)
		assert.LessOrEqual(t, len(p.Specifications), 2000)
		assert.True(t, p.Price.IsPositive())
		assert.Equal(t, int32(-2), p.Price.Exponent())
		assert.GreaterOrEqual(t, p.Rating, 0.0)
		assert.LessOrEqual(t, p.Rating, 5.0)
	}

	products[0].Name = "mutated"
	assert.Equal(t, "Dell XPS 15 Laptop", Defaults()[0].Name, "each call returns a fresh slice")
}
