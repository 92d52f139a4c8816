package feed

import (
	"context"
	"net/http"

	"Postsync/internal/api/handlers"
	"Postsync/internal/core/postsync"
)

// ToggleResponse reports a settled toggle
type ToggleResponse struct {
	Outcome string    `json:"outcome"`
	State   StateView `json:"state"`
}

// HandleToggleLike flips the like on a previously fetched post
// POST /api/posts/{id}/like
func (h *Handler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	h.handleToggle(w, r, postsync.FacetLike)
}

// HandleToggleShare flips the share on a previously fetched post
// POST /api/posts/{id}/share
func (h *Handler) HandleToggleShare(w http.ResponseWriter, r *http.Request) {
	h.handleToggle(w, r, postsync.FacetShare)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request, facet postsync.Facet) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, seen := h.seen.Lookup(id)
	if !seen {
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post has not been loaded; fetch the feed first")
		return
	}

	var remoteErr error
	callbacks := postsync.ToggleHandlers{
		OnError: func(err error) { remoteErr = err },
	}

	var outcome postsync.Outcome
	switch facet {
	case postsync.FacetShare:
		outcome = h.sync.HandleShareToggle(r.Context(), post, func(ctx context.Context) error {
			return h.remote.ToggleShare(ctx, id)
		}, callbacks)
	default:
		outcome = h.sync.HandleLikeToggle(r.Context(), post, func(ctx context.Context) error {
			return h.remote.ToggleLike(ctx, id)
		}, callbacks)
	}

	switch outcome {
	case postsync.OutcomeCommitted:
		view, _ := h.stateView(id)
		handlers.WriteJSON(w, http.StatusOK, ToggleResponse{Outcome: outcome.String(), State: view})
	case postsync.OutcomeSuperseded:
		handlers.WriteError(w, http.StatusConflict, "Superseded", "A newer toggle on this post was issued before this one settled")
	default:
		h.logger.Warn("toggle rolled back",
			"post", id,
			"facet", facet,
			"error", remoteErr)
		handlers.WriteError(w, http.StatusBadGateway, "RemoteCallFailed", "Backend rejected the toggle; state was restored")
	}
}
