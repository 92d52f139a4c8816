package feed

import (
	"encoding/json"
	"net/http"

	"Postsync/internal/api/handlers"
)

// UpdateCommentsRequest carries an absolute comment total
type UpdateCommentsRequest struct {
	CommentCount *int `json:"commentCount"`
}

// HandleUpdateComments records a comment total reported by a screen, for
// example after the comment view posted a reply
// PUT /api/posts/{id}/comments
//
// Request body: { "commentCount": 12 }
func (h *Handler) HandleUpdateComments(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	var req UpdateCommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	if req.CommentCount == nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "commentCount is required")
		return
	}
	if *req.CommentCount < 0 {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "commentCount must not be negative")
		return
	}

	h.sync.HandleCommentCountUpdate(id, *req.CommentCount)

	view, _ := h.stateView(id)
	handlers.WriteJSON(w, http.StatusOK, view)
}

// HandleRefreshComments asks the backend for the exact comment total
// POST /api/posts/{id}/comments/refresh
func (h *Handler) HandleRefreshComments(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	count, err := h.remote.FetchCommentCount(r.Context(), id)
	if err != nil {
		handleRemoteError(w, h.logger, err)
		return
	}
	h.sync.UpdatePostComment(id, count)

	view, _ := h.stateView(id)
	handlers.WriteJSON(w, http.StatusOK, view)
}
