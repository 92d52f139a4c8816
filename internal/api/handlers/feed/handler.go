// Package feed exposes the post sync facade to screens over HTTP.
// Every response carries post state merged from the shared store, so two
// screens showing the same post always agree.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Postsync/internal/api/handlers"
	"Postsync/internal/core/posts"
	"Postsync/internal/core/postsync"
)

// Handler serves the feed and post state endpoints
type Handler struct {
	sync   postsync.Service
	remote posts.RemoteService
	seen   *SeenPosts
	logger *slog.Logger
}

// NewHandler creates a feed handler
func NewHandler(sync postsync.Service, remote posts.RemoteService, seen *SeenPosts, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sync:   sync,
		remote: remote,
		seen:   seen,
		logger: logger,
	}
}

// Refresh refetches the feed from the backend and reconciles the store with it.
// It is the postsync.RefreshFunc the daemon wires into the sync service, so it
// only runs after a toggle has settled against the server.
func (h *Handler) Refresh(ctx context.Context) error {
	list, err := h.fetch(ctx)
	if err != nil {
		return err
	}
	h.sync.ReconcileWithServer(list)
	return nil
}

// Preload fetches the feed so toggles can address its posts by id.
// Stored overrides keep shadowing the fetched values.
func (h *Handler) Preload(ctx context.Context) error {
	_, err := h.fetch(ctx)
	return err
}

// fetch loads the feed and remembers each record
func (h *Handler) fetch(ctx context.Context) ([]posts.Post, error) {
	list, err := h.remote.FetchPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	h.seen.Remember(list)
	return list, nil
}

// postID parses the {id} URL parameter, writing a 400 on failure
func postID(w http.ResponseWriter, r *http.Request) (posts.ID, bool) {
	id, err := posts.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "post id must be an integer")
		return 0, false
	}
	return id, true
}
