package middleware

import (
	"context"
	"net/http"
	"slices"

	"product-compare/internal/handler"
	"product-compare/internal/model"
	"product-compare/internal/service"

	"github.com/rs/zerolog"
)

// APIKeyHeader is the request header carrying the raw API key.
const APIKeyHeader = "X-API-KEY"

type apiKeyCtxKey struct{}

// KeyFromContext returns the authenticated key, if any.
func KeyFromContext(ctx context.Context) (*model.APIKey, bool) {
	key, ok := ctx.Value(apiKeyCtxKey{}).(*model.APIKey)
	return key, ok
}

// Authenticate resolves the X-API-KEY header through keys and stores the
// result in the request context. Requests without a usable key are rejected
// with 401.
func Authenticate(keys service.APIKeyService, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(APIKeyHeader)

			key, err := keys.Authenticate(r.Context(), raw)
			if err != nil {
				de, ok := model.AsDomainError(err)
				if !ok {
					logger.Error().Err(err).Str("path", r.URL.Path).Msg("api key lookup failed")
					handler.WriteError(w, r, http.StatusInternalServerError,
						"An internal server error occurred",
						"An unexpected error happened. Please try again in a few minutes.")
					return
				}
				logger.Warn().
					Str("path", r.URL.Path).
					Str("key_prefix", raw[:min(8, len(raw))]).
					Msg(de.Message)
				handler.WriteError(w, r, http.StatusUnauthorized, "Unauthorized", de.Message)
				return
			}

			ctx := context.WithValue(r.Context(), apiKeyCtxKey{}, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose key role is not listed.
// It must run after Authenticate.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := KeyFromContext(r.Context())
			if !ok {
				handler.WriteError(w, r, http.StatusUnauthorized, "Unauthorized", model.ErrAPIKeyRequired.Message)
				return
			}
			if !slices.Contains(roles, key.Role) {
				handler.WriteError(w, r, http.StatusForbidden, "Forbidden", model.ErrForbidden.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
