package router

import (
	"net/http"

	"product-compare/internal/handler"
	"product-compare/internal/health"
	"product-compare/internal/middleware"
	"product-compare/internal/model"
	"product-compare/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Products *handler.ProductHandler
	Keys     *handler.APIKeyHandler
	Root     *handler.RootHandler
	Auth     service.APIKeyService
	Health   *health.Health
	// RateLimit, when set, limits every route by client address and the
	// authenticated routes by key.
	RateLimit *middleware.RateLimiter
	Logger    zerolog.Logger
}

var (
	readers = []model.Role{model.RoleUser, model.RoleAdmin, model.RoleRoot}
	writers = []model.Role{model.RoleAdmin, model.RoleRoot}
)

// New creates a new HTTP router with all routes and middleware configured.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> CORS -> RateLimit
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.CORS)
	if d.RateLimit != nil {
		r.Use(d.RateLimit.ByClient)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, http.StatusNotFound, "Resource not found", "No route for "+req.Method+" "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, http.StatusMethodNotAllowed, "Method not allowed", req.Method+" is not supported on "+req.URL.Path)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	if d.Health != nil {
		r.Get("/livez", d.Health.LiveEndpoint)
		r.Get("/readyz", d.Health.ReadyEndpoint)
	}

	r.Post("/api/keys/generate", d.Keys.Generate)

	r.Route("/api/products", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Auth, d.Logger))
		if d.RateLimit != nil {
			r.Use(d.RateLimit.ByKey)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(readers...))
			r.Get("/", d.Products.List)
			r.Get("/advancedSearch", d.Products.AdvancedSearch)
			r.Get("/compare", d.Products.Compare)
			r.Get("/{id}", d.Products.GetByID)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(writers...))
			r.Post("/", d.Products.Create)
			r.Put("/", d.Products.UpdateByBody)
			r.Put("/{id}", d.Products.UpdateByPath)
			r.Delete("/{id}", d.Products.Delete)
		})
	})

	r.Route("/api/root", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Auth, d.Logger))
		if d.RateLimit != nil {
			r.Use(d.RateLimit.ByKey)
		}
		r.Use(middleware.RequireRole(model.RoleRoot))

		r.Post("/reset-db", d.Root.ResetDB)
		r.Post("/load-samples", d.Root.LoadSamples)
		r.Delete("/products", d.Root.DeleteAll)
		r.Post("/keys/admin", d.Keys.GenerateAdmin)
		r.Get("/cache", d.Root.CacheStats)
		r.Delete("/cache", d.Root.EvictCache)
	})

	return r
}
