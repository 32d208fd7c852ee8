package handler

import (
	"net/http"
	"strconv"
	"strings"

	"product-compare/internal/model"
	"product-compare/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultPage = 1
	defaultSize = 10
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products?page=&size=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, ok := h.pageParams(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListPage(r.Context(), page, size)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AdvancedSearch handles GET /api/products/advancedSearch.
func (h *ProductHandler) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	page, size, ok := h.pageParams(w, r)
	if !ok {
		return
	}

	criteria, err := parseCriteria(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	result, err := h.service.AdvancedSearch(r.Context(), page, size, criteria)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Compare handles GET /api/products/compare?ids=1,2,3. Repeated ids
// parameters are accepted as well.
func (h *ProductHandler) Compare(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query()["ids"])
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	products, err := h.service.Compare(r.Context(), ids)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/products/{id}.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := decodeJSON(r, &product); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), &product)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdateByPath handles PUT /api/products/{id}. The path id wins over any id
// in the body.
func (h *ProductHandler) UpdateByPath(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := decodeJSON(r, &product); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	h.update(w, r, id, &product)
}

// UpdateByBody handles PUT /api/products, taking the id from the body.
func (h *ProductHandler) UpdateByBody(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if err := decodeJSON(r, &product); err != nil {
		WriteError(w, r, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	h.update(w, r, product.ID, &product)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request, id int64, product *model.Product) {
	if id <= 0 {
		writeBadRequest(w, r, "product id is required")
		return
	}

	updated, err := h.service.Update(r.Context(), id, product)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) pageParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page, err := intQuery(r, "page", defaultPage)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return 0, 0, false
	}
	size, err := intQuery(r, "size", defaultSize)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return 0, 0, false
	}
	return page, size, true
}

// parseCriteria reads the optional search parameters. Range checks are left
// to the service.
func parseCriteria(r *http.Request) (model.SearchCriteria, error) {
	q := r.URL.Query()
	criteria := model.SearchCriteria{
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortDir"),
	}

	if name := q.Get("name"); name != "" {
		criteria.Name = &name
	}

	if raw := q.Get("minPrice"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return criteria, errInvalidParam("minPrice")
		}
		criteria.MinPrice = &v
	}

	if raw := q.Get("maxPrice"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return criteria, errInvalidParam("maxPrice")
		}
		criteria.MaxPrice = &v
	}

	if raw := q.Get("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return criteria, errInvalidParam("minRating")
		}
		criteria.MinRating = &v
	}

	return criteria, nil
}

// parseIDs flattens comma-separated and repeated ids values.
func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, errInvalidParam("ids")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
