// Package catalog loads sample product catalogs used for bulk loads and resets.
//
// Catalog files are JSON lines, one product per line, optionally gzipped
// (detected by a ".gz" suffix). They can live on the local file system or in
// S3; when no file is configured the built-in samples are used.
package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"product-compare/internal/model"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
)

// Loader reads a catalog file from some location.
type Loader interface {
	Load(ctx context.Context, path string) ([]model.Product, error)
}

// isGzip reports whether the path names a gzipped catalog.
func isGzip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// decode reads JSON-lines products from r, gunzipping first when gz is set.
// Ids in the file are ignored; the store assigns them.
func decode(ctx context.Context, r io.Reader, gz bool) ([]model.Product, error) {
	if gz {
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer zr.Close()
		r = zr
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var products []model.Product
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var p model.Product
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			return nil, errors.Wrapf(err, "decode line %d", line)
		}
		p.ID = 0
		products = append(products, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read catalog")
	}

	return products, nil
}

// Defaults returns the built-in sample catalog.
func Defaults() []model.Product {
	return []model.Product{
		{
			Name:     "Dell XPS 15 Laptop",
			ImageURL: "https://example.com/images/dell-xps-15.jpg",
			Description: "High-performance premium laptop powered by an 11th Gen Intel Core i7 processor, " +
				"ideal for creative professionals and developers. Features a 4K OLED touchscreen display.",
			Price:  decimal.RequireFromString("1299.99"),
			Rating: 4.5,
			Specifications: "Processor: Intel Core i7-11800H, RAM: 16GB DDR4, " +
				"Storage: 512GB NVMe SSD, Display: 15.6\" 4K OLED (3840x2160), " +
				"Graphics Card: NVIDIA GeForce RTX 3050 Ti 4GB, " +
				"Weight: 2.0 kg, Battery: up to 8 hours",
		},
		{
			Name:     "Samsung Galaxy S23 Ultra",
			ImageURL: "https://example.com/images/samsung-s23-ultra.jpg",
			Description: "Samsung's flagship smartphone featuring a 200MP camera, " +
				"integrated S Pen, and Dynamic AMOLED 2X display. Power and elegance in a single device.",
			Price:  decimal.RequireFromString("1199.99"),
			Rating: 4.8,
			Specifications: "Processor: Snapdragon 8 Gen 2, RAM: 12GB, " +
				"Storage: 256GB, Display: 6.8\" Dynamic AMOLED 2X (3088x1440) 120Hz, " +
				"Main Camera: 200MP + 12MP Ultra Wide + 10MP Telephoto (3x) + 10MP Telephoto (10x), " +
				"Battery: 5000mAh with 45W fast charging, S Pen included",
		},
		{
			Name:     "Sony WH-1000XM5",
			ImageURL: "https://example.com/images/sony-wh1000xm5.jpg",
			Description: "Wireless headphones with industry-leading noise cancellation. " +
				"Premium sound with LDAC technology and up to 30 hours of battery life.",
			Price:  decimal.RequireFromString("399.99"),
			Rating: 4.7,
			Specifications: "Type: Closed-back over-ear, Connectivity: Bluetooth 5.2, LDAC, " +
				"Noise Cancellation: Next-generation Active Noise Cancelling (ANC), " +
				"Battery: up to 30 hours with ANC on, 40 hours without ANC, " +
				"Fast Charging: 3 minutes = 3 hours of playback, " +
				"Drivers: 30mm, Weight: 250g, Multifunction touch controls",
		},
	}
}
