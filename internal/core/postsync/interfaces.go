package postsync

import (
	"context"

	"Postsync/internal/core/poststate"
	"Postsync/internal/core/posts"
)

// Service is the screen-facing surface of the post state layer.
// Screens read and mutate post state only through these methods.
type Service interface {
	// SyncPostState merges a partial state into the local entry for a post
	SyncPostState(id posts.ID, state poststate.Override)

	// BatchUpdatePostStates applies SyncPostState for each update in order
	BatchUpdatePostStates(updates []StateUpdate)

	// UpdatePostLike sets the like flag, seeding from post when the facet is unseeded
	UpdatePostLike(post posts.Post, isLiked bool) poststate.LikeState

	// UpdatePostShare sets the share flag, seeding from post when the facet is unseeded
	UpdatePostShare(post posts.Post, isShared bool) poststate.ShareState

	// UpdatePostComment sets the absolute comment total
	UpdatePostComment(id posts.ID, commentCount int)

	// HandleCommentCountUpdate records an exactly known comment total; no optimistic phase
	HandleCommentCountUpdate(id posts.ID, commentCount int)

	// GetPostLikeState returns the locally known like facet; ok is false unless both
	// fields have a local value
	GetPostLikeState(id posts.ID) (poststate.LikeState, bool)

	// GetPostShareState returns the locally known share facet
	GetPostShareState(id posts.ID) (poststate.ShareState, bool)

	// GetPostCommentState returns the locally known comment facet
	GetPostCommentState(id posts.ID) (poststate.CommentState, bool)

	// GetSyncedPost overlays local overrides onto a server record, field by field.
	// The input is never modified.
	GetSyncedPost(post posts.Post) posts.Post

	// GetPostsWithSyncedStates applies GetSyncedPost to every post, keeping order
	GetPostsWithSyncedStates(list []posts.Post) []posts.Post

	// HandleLikeToggle flips the like optimistically, runs call, then commits or rolls back.
	// It returns once call has settled.
	HandleLikeToggle(ctx context.Context, post posts.Post, call RemoteCall, handlers ToggleHandlers) Outcome

	// HandleShareToggle is HandleLikeToggle for shares
	HandleShareToggle(ctx context.Context, post posts.Post, call RemoteCall, handlers ToggleHandlers) Outcome

	// ReconcileWithServer re-seeds every facet without an in-flight toggle from
	// freshly fetched server records
	ReconcileWithServer(list []posts.Post)

	// RefreshPosts runs the injected refresh callback, if any
	RefreshPosts(ctx context.Context) error

	// ClearStates wipes local state and its persisted copy, waiting for the erase
	// until ctx is done. In-flight toggles resolve without touching the cleared store.
	ClearStates(ctx context.Context)
}

// RemoteCall performs the server side of a toggle
type RemoteCall func(ctx context.Context) error

// RefreshFunc refetches the screen's post list after a committed toggle.
// It is owned by the screen layer and injected into the service.
type RefreshFunc func(ctx context.Context) error

// ToggleHandlers are optional callbacks invoked when a toggle settles
type ToggleHandlers struct {
	// OnSuccess receives the committed flag value
	OnSuccess func(value bool)

	// OnError receives the remote failure after state has been rolled back
	OnError func(err error)
}

// StateUpdate is one entry of a batch update
type StateUpdate struct {
	State poststate.Override
	ID    posts.ID
}
