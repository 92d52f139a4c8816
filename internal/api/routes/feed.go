package routes

import (
	"github.com/go-chi/chi/v5"

	"Postsync/internal/api/handlers/feed"
)

// RegisterFeedRoutes registers the feed and post state endpoints on the router
func RegisterFeedRoutes(r chi.Router, h *feed.Handler) {
	// Query endpoints
	r.Get("/api/feed", h.HandleGetFeed)
	r.Get("/api/posts/{id}/state", h.HandleGetPostState)

	// Toggles settle before responding: 200 committed, 409 superseded, 502 rolled back
	r.Post("/api/posts/{id}/like", h.HandleToggleLike)
	r.Post("/api/posts/{id}/share", h.HandleToggleShare)

	// Comment totals are absolute values, never deltas
	r.Put("/api/posts/{id}/comments", h.HandleUpdateComments)
	r.Post("/api/posts/{id}/comments/refresh", h.HandleRefreshComments)

	// Logout
	r.Delete("/api/state", h.HandleClearState)
}
