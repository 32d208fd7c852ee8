package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"product-compare/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
)

const internalErrorDetails = "An unexpected error happened. Please try again in a few minutes."

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to tell the client.
		return
	}
}

// WriteError writes the standard error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message, details string) {
	writeJSON(w, status, model.ErrorResponse{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
	})
}

// writeServiceError maps a service error onto a status code and envelope.
// Anything that is not a DomainError is reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, r, http.StatusInternalServerError, "An internal server error occurred", internalErrorDetails)
		return
	}

	status, message := statusFor(de.Code)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, r, status, message, internalErrorDetails)
		return
	}

	logger.Debug().Str("code", de.Code).Str("path", r.URL.Path).Msg(de.Message)
	WriteError(w, r, status, message, de.Message)
}

// statusFor returns the HTTP status and summary message for a domain error code.
func statusFor(code string) (int, string) {
	switch code {
	case model.ErrCodeValidation:
		return http.StatusBadRequest, "Invalid request"
	case model.ErrCodeInvalidInput:
		return http.StatusBadRequest, "Validation error"
	case model.ErrCodeNotFound:
		return http.StatusNotFound, "Resource not found"
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized, "Unauthorized"
	case model.ErrCodeForbidden:
		return http.StatusForbidden, "Forbidden"
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests, "Too many requests"
	default:
		return http.StatusInternalServerError, "An internal server error occurred"
	}
}

// writeBadRequest reports a malformed parameter.
func writeBadRequest(w http.ResponseWriter, r *http.Request, details string) {
	WriteError(w, r, http.StatusBadRequest, "Invalid request", details)
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "malformed JSON body")
	}
	return nil
}

// idParam parses the {id} path parameter.
func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errInvalidParam(name)
	}
	return v, nil
}

func errInvalidParam(name string) error {
	return errors.Errorf("invalid %s parameter", name)
}
