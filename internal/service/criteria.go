package service

import (
	"slices"

	"product-compare/internal/model"
)

var (
	validSortBy  = []string{model.SortByID, model.SortByName, model.SortByPrice, model.SortByRating}
	validSortDir = []string{model.SortAsc, model.SortDesc}
)

// Criteria validation errors, checked in this order.
var (
	ErrMinPriceNotPositive = model.NewValidationError("Minimum price should be greater than zero")
	ErrMaxBelowMin         = model.NewValidationError("Maximum price should be greater than minimum price")
	ErrRatingOutOfRange    = model.NewValidationError("Rating should be between 0 and 5")
	ErrInvalidSortBy       = model.NewValidationError("Invalid sorting criteria")
	ErrInvalidSortDir      = model.NewValidationError("Invalid sorting direction. Use 'asc' or 'desc'")
)

// ValidateCriteria fills in default ordering and rejects the first invalid
// field. It has no side effects.
func ValidateCriteria(c model.SearchCriteria) (model.SearchCriteria, error) {
	c = c.WithDefaults()

	if c.MinPrice != nil && !c.MinPrice.IsPositive() {
		return c, ErrMinPriceNotPositive
	}
	if c.MinPrice != nil && c.MaxPrice != nil && c.MaxPrice.LessThan(*c.MinPrice) {
		return c, ErrMaxBelowMin
	}
	// Written as a negated range so NaN is rejected too.
	if c.MinRating != nil && !(*c.MinRating >= 0 && *c.MinRating <= 5) {
		return c, ErrRatingOutOfRange
	}
	if !slices.Contains(validSortBy, c.SortBy) {
		return c, ErrInvalidSortBy
	}
	if !slices.Contains(validSortDir, c.SortDir) {
		return c, ErrInvalidSortDir
	}

	return c, nil
}

// validatePage checks caller-facing (1-based) paging arguments.
func validatePage(page, size int) error {
	if page < 1 {
		return model.ErrInvalidPage
	}
	if size < 1 || size > MaxPageSize {
		return model.ErrInvalidSize
	}
	return nil
}
