package feed

import (
	"net/http"

	"Postsync/internal/api/handlers"
	"Postsync/internal/core/posts"
)

// HandleGetFeed returns the current feed with locally known state applied
// GET /api/feed
func (h *Handler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	list, err := h.fetch(r.Context())
	if err != nil {
		handleRemoteError(w, h.logger, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, posts.FeedResponse{
		Posts: h.sync.GetPostsWithSyncedStates(list),
	})
}
