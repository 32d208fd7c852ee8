package model

import "github.com/shopspring/decimal"

// Sort columns accepted by advanced search.
const (
	SortByID     = "id"
	SortByName   = "name"
	SortByPrice  = "price"
	SortByRating = "rating"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// SearchCriteria holds the optional filters and ordering for advanced search.
// Nil filters are not applied.
type SearchCriteria struct {
	SortBy    string
	SortDir   string
	Name      *string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *float64
}

// WithDefaults fills empty ordering fields with id/asc.
func (c SearchCriteria) WithDefaults() SearchCriteria {
	if c.SortBy == "" {
		c.SortBy = SortByID
	}
	if c.SortDir == "" {
		c.SortDir = SortAsc
	}
	return c
}
