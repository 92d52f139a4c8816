package feed

import (
	"net/http"

	"Postsync/internal/api/handlers"
	"Postsync/internal/core/poststate"
	"Postsync/internal/core/posts"
)

// StateView is the merged social state of one post. A facet is omitted when
// neither the store nor a cached server record knows it.
type StateView struct {
	Like    *poststate.LikeState    `json:"like,omitempty"`
	Share   *poststate.ShareState   `json:"share,omitempty"`
	Comment *poststate.CommentState `json:"comment,omitempty"`
	ID      posts.ID                `json:"id"`
}

// HandleGetPostState returns what every screen should currently render for a post
// GET /api/posts/{id}/state
func (h *Handler) HandleGetPostState(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	view, known := h.stateView(id)
	if !known {
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "No state known for this post")
		return
	}
	handlers.WriteJSON(w, http.StatusOK, view)
}

// stateView merges the cached server record (if any) with the store
func (h *Handler) stateView(id posts.ID) (StateView, bool) {
	view := StateView{ID: id}

	if post, seen := h.seen.Lookup(id); seen {
		synced := h.sync.GetSyncedPost(post)
		view.Like = &poststate.LikeState{IsLiked: synced.IsLiked, LikeCount: synced.LikeCount}
		view.Share = &poststate.ShareState{IsShared: synced.IsShared, ShareCount: synced.ShareCount}
		view.Comment = &poststate.CommentState{CommentCount: synced.CommentCount}
		return view, true
	}

	if like, ok := h.sync.GetPostLikeState(id); ok {
		view.Like = &like
	}
	if share, ok := h.sync.GetPostShareState(id); ok {
		view.Share = &share
	}
	if comment, ok := h.sync.GetPostCommentState(id); ok {
		view.Comment = &comment
	}
	return view, view.Like != nil || view.Share != nil || view.Comment != nil
}
