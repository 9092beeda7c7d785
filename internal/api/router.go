package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// NewRouter wires the handler into the service's route tree. The health
// endpoint sits outside auth so probes do not need credentials.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api/v1/analysis", func(r chi.Router) {
		r.Use(apiKeyAuth(h.config.App.ServiceAPIKey))
		r.Post("/hashtag", h.AnalyzeHashtag)
		r.Post("/account", h.AnalyzeAccount)
		r.Post("/search", h.AnalyzeSearch)
	})

	return r
}
