package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	mw "github.com/codezelat/pitchlens/internal/api/middleware"
	"github.com/codezelat/pitchlens/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth *mw.Auth
	// RateLimit is optional; nil disables request limiting.
	RateLimit *mw.RateLimit

	HealthHandler   http.HandlerFunc
	LatestHandler   http.HandlerFunc
	ListHandler     http.HandlerFunc
	AnalyzeHandler  http.HandlerFunc
	ClearHandler    http.HandlerFunc
	BadgeHandler    http.HandlerFunc
	DownloadHandler http.HandlerFunc
	PublishHandler  http.HandlerFunc
	ShareHandler    http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	// Cross-origin reads only. Badges are embedded on third-party pages.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization"},
		ExposedHeaders: []string{"X-PitchLens-Source", "X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Identify)
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Get("/api/v1/analyses/latest", orNotImplemented(deps.LatestHandler))
		r.Get("/api/v1/analyses", orNotImplemented(deps.ListHandler))
		r.Post("/api/v1/analyze", orNotImplemented(deps.AnalyzeHandler))
		r.Delete("/api/v1/snapshot", orNotImplemented(deps.ClearHandler))

		r.Get("/api/v1/badges/{style}", orNotImplemented(deps.BadgeHandler))
		r.Get("/api/v1/badges/{style}/download", orNotImplemented(deps.DownloadHandler))
		r.Get("/api/v1/share/{platform}", orNotImplemented(deps.ShareHandler))

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireIdentity)
			r.Use(deps.Auth.RequirePublishKey)

			r.Post("/api/v1/badges/{style}/publish", orNotImplemented(deps.PublishHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
