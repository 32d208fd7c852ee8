// Command gencatalog writes a synthetic JSON-lines product catalog that the
// API can load through CATALOG_FILE or from S3.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"product-compare/internal/catalog"
	"product-compare/internal/model"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
)

var (
	brands   = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Stark"}
	kinds    = []string{"Laptop", "Phone", "Tablet", "Headphones", "Monitor", "Camera"}
	variants = []string{"Lite", "Pro", "Max", "Ultra", "Air", "Mini"}
)

func main() {
	out := flag.String("out", "data/catalog/products.jsonl.gz", "output path; .gz suffix enables gzip")
	count := flag.Int("n", 50, "number of generated products in addition to the built-in samples")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if err := run(*out, *count, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out string, count int, seed uint64) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer f.Close()

	var w io.Writer = f
	if strings.HasSuffix(out, ".gz") {
		zw := pgzip.NewWriter(f)
		defer zw.Close()
		w = zw
	}

	bw := bufio.NewWriter(w)
	products := append(catalog.Defaults(), generate(count, seed)...)
	enc := json.NewEncoder(bw)
	for _, p := range products {
		if err := enc.Encode(p); err != nil {
			return errors.Wrap(err, "encode product")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "flush catalog")
	}

	fmt.Printf("Wrote %d products to %s\n", len(products), out)
	return nil
}

func generate(n int, seed uint64) []model.Product {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	products := make([]model.Product, 0, n)
	for i := range n {
		brand := brands[rng.IntN(len(brands))]
		kind := kinds[rng.IntN(len(kinds))]
		variant := variants[rng.IntN(len(variants))]
		name := fmt.Sprintf("%s %s %s %d", brand, kind, variant, i+1)
		slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))

		products = append(products, model.Product{
			Name:           name,
			ImageURL:       "https://example.com/images/" + slug + ".jpg",
			Description:    fmt.Sprintf("%s %s from %s's %s line.", variant, strings.ToLower(kind), brand, variant),
			Price:          decimal.New(int64(1999+rng.IntN(299000)), -2),
			Rating:         float64(rng.IntN(51)) / 10,
			Specifications: fmt.Sprintf("Model: %s, Warranty: %d years, Weight: %dg", slug, 1+rng.IntN(3), 150+rng.IntN(2500)),
		})
	}
	return products
}
