package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/vaultservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *vaultservice.Service, authEnabled bool, token string, broker *sse.Broker) chi.Router {
	h := NewHandler(svc, broker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	// Batch moves and link health.
	r.Post("/moves", h.MoveNotes)
	r.Post("/links/check", h.CheckLinks)

	// Analytics and search.
	r.Get("/analytics", h.Analytics)
	r.Get("/search", h.Search)

	// SSE endpoint (protected by the same auth middleware).
	if broker != nil {
		r.Get("/events", broker.ServeHTTP)
	}

	return r
}
