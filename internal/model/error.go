package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// Standard error codes for domain failures.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorised  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// DomainError is a business-level failure carrying a stable code.
// IDs is set for not-found errors raised by multi-id lookups.
type DomainError struct {
	Code    string
	Message string
	IDs     []int64
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with the given message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// NewInvalidInputError reports a request body that violates field constraints.
func NewInvalidInputError(message string) *DomainError {
	return NewDomainError(ErrCodeInvalidInput, message)
}

// NewProductNotFoundError reports a single missing product.
func NewProductNotFoundError(id int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("Product with ID %d not found", id),
		IDs:     []int64{id},
	}
}

// NewMissingProductsError reports the ids a comparison could not resolve.
func NewMissingProductsError(missing []int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: "Could not find all products. Missing IDs: " + FormatIDs(missing),
		IDs:     missing,
	}
}

// Common domain errors
var (
	ErrEmptyIDList    = NewValidationError("ID list should not be empty")
	ErrInvalidPage    = NewValidationError("Page number should be greater than zero")
	ErrInvalidSize    = NewValidationError("Page size should be between 1 and 100")
	ErrUnauthorised   = NewDomainError(ErrCodeUnauthorised, "Invalid or missing API key")
	ErrForbidden      = NewDomainError(ErrCodeForbidden, "Insufficient permissions")
	ErrAPIKeyRequired = NewDomainError(ErrCodeUnauthorised, "API key is required")
)

// AsDomainError unwraps err into a DomainError if one is in the chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsValidation reports whether err rejects the caller's input.
func IsValidation(err error) bool {
	de, ok := AsDomainError(err)
	return ok && (de.Code == ErrCodeValidation || de.Code == ErrCodeInvalidInput)
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == ErrCodeNotFound
}

// FormatIDs renders ids as "[1, 2, 3]".
func FormatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
