package model

import (
	"github.com/shopspring/decimal"
)

func init() {
	// prices are rendered as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a catalog entry that can be listed, searched and compared.
type Product struct {
	ID             int64           `json:"id,omitempty" db:"id"`
	Name           string          `json:"name" db:"name" validate:"notblank,max=255"`
	ImageURL       string          `json:"imageUrl" db:"image_url" validate:"notblank"`
	Description    string          `json:"description" db:"description" validate:"notblank,max=1000"`
	Price          decimal.Decimal `json:"price" db:"price" validate:"gt=0"`
	Rating         float64         `json:"rating" db:"rating" validate:"gte=0,lte=5"`
	Specifications string          `json:"specifications" db:"specifications" validate:"notblank,max=2000"`
}

// Pagination describes where a page sits within the full result set.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	IsLast        bool  `json:"isLast"`
}

// Paged is a single page of items plus its pagination metadata.
// Values handed out by the query engine are shared and must not be mutated.
type Paged[T any] struct {
	Products   []T        `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// PagedProducts is the page type returned by listing and search.
type PagedProducts = Paged[Product]

// NewPagedProducts builds a page from a 0-based store page. currentPage is the
// caller-facing page number and is reported as-is.
func NewPagedProducts(items []Product, currentPage, pageSize int, total int64) *PagedProducts {
	if items == nil {
		items = []Product{}
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return &PagedProducts{
		Products: items,
		Pagination: Pagination{
			CurrentPage:   currentPage,
			PageSize:      pageSize,
			TotalElements: total,
			TotalPages:    totalPages,
			IsLast:        currentPage >= totalPages,
		},
	}
}
