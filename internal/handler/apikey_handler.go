package handler

import (
	"net/http"

	"product-compare/internal/service"

	"github.com/rs/zerolog"
)

// APIKeyHandler issues API keys to callers.
type APIKeyHandler struct {
	service service.APIKeyService
	logger  zerolog.Logger
}

// NewAPIKeyHandler creates a new API key handler.
func NewAPIKeyHandler(service service.APIKeyService, logger zerolog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		service: service,
		logger:  logger.With().Str("handler", "apikey").Logger(),
	}
}

// Generate handles POST /api/keys/generate. The raw key is only ever
// returned here.
func (h *APIKeyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	issued, err := h.service.IssueUserKey(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info().Str("role", string(issued.Role)).Msg("api key issued")
	writeJSON(w, http.StatusCreated, issued)
}

// GenerateAdmin handles POST /api/root/keys/admin.
func (h *APIKeyHandler) GenerateAdmin(w http.ResponseWriter, r *http.Request) {
	issued, err := h.service.IssueAdminKey(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	h.logger.Info().Str("role", string(issued.Role)).Msg("admin api key issued")
	writeJSON(w, http.StatusCreated, issued)
}
