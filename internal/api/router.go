// Package api wires the console's HTTP surface: the JSON API under /api/v1
// and the browser auth endpoints.
package api

import (
	"net/http"

	"github.com/accessops/access-console/internal/api/handler"
	"github.com/accessops/access-console/internal/api/middleware"
	"github.com/accessops/access-console/internal/catalog"
	"github.com/accessops/access-console/internal/renewal"
	"github.com/accessops/access-console/internal/storage"
	"github.com/accessops/access-console/internal/web"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Deps carries everything the router needs.
type Deps struct {
	Store        storage.Storage
	Catalog      *catalog.Service
	Submitter    *renewal.Submitter
	BootstrapKey string
	AdminEmails  map[string]bool
	OIDC         *web.OIDCComponents
	LogoutURL    string
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging)

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Browser auth endpoints (session-based, no API key)
	r.Mount("/", web.NewRouter(deps.OIDC, deps.LogoutURL, deps.AdminEmails))

	// API routes (auth required, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(deps.Store, deps.BootstrapKey))

		// API Keys
		keyHandler := handler.NewAPIKeyHandler(deps.Store)
		r.Post("/keys", keyHandler.Create)
		r.Get("/keys", keyHandler.List)
		r.Delete("/keys/{id}", keyHandler.Delete)

		// Catalog
		catalogHandler := handler.NewCatalogHandler(deps.Catalog)
		r.Get("/groups", catalogHandler.ListGroups)
		r.Get("/groups/{id}", catalogHandler.GetGroup)
		r.Get("/roles", catalogHandler.ListRoles)
		r.Get("/roles/{id}", catalogHandler.GetGroup)
		r.Get("/tags", catalogHandler.ListTags)
		r.Post("/catalog/refresh", catalogHandler.Refresh)

		// Constraint resolution
		constraintHandler := handler.NewConstraintHandler(deps.Catalog)
		r.Post("/constraints/resolve", constraintHandler.Resolve)

		// Bulk renewals
		renewalHandler := handler.NewRenewalHandler(deps.Store, deps.Catalog, deps.Submitter, deps.AdminEmails)
		r.Post("/renewals", renewalHandler.Submit)
		r.Get("/renewals", renewalHandler.List)

		// Preferences
		prefHandler := handler.NewPreferenceHandler(deps.Store)
		r.Get("/preferences/{email}", prefHandler.Get)
		r.Put("/preferences/{email}", prefHandler.Update)
	})

	return r
}
