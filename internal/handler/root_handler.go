package handler

import (
	"net/http"

	"product-compare/internal/cache"
	"product-compare/internal/service"

	"github.com/rs/zerolog"
)

// RootHandler serves catalog administration endpoints.
type RootHandler struct {
	service service.ProductService
	cache   *cache.PageCache
	logger  zerolog.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(service service.ProductService, pageCache *cache.PageCache, logger zerolog.Logger) *RootHandler {
	return &RootHandler{
		service: service,
		cache:   pageCache,
		logger:  logger.With().Str("handler", "root").Logger(),
	}
}

type loadedResponse struct {
	Loaded int `json:"loaded"`
}

// ResetDB handles POST /api/root/reset-db.
func (h *RootHandler) ResetDB(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ResetCatalog(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Warn().Int("loaded", n).Msg("catalog reset")
	writeJSON(w, http.StatusOK, loadedResponse{Loaded: n})
}

// LoadSamples handles POST /api/root/load-samples.
func (h *RootHandler) LoadSamples(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.LoadSamples(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, loadedResponse{Loaded: n})
}

// DeleteAll handles DELETE /api/root/products.
func (h *RootHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAll(r.Context()); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Warn().Msg("catalog emptied")
	w.WriteHeader(http.StatusNoContent)
}

// CacheStats handles GET /api/root/cache.
func (h *RootHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

// EvictCache handles DELETE /api/root/cache.
func (h *RootHandler) EvictCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
