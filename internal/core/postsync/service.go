// Package postsync composes the post state store with remote calls so every
// screen sees the same like/share/comment state for a post.
package postsync

import (
	"context"
	"log/slog"
	"sync"

	"Postsync/internal/core/poststate"
	"Postsync/internal/core/posts"
)

// service implements the Service interface
type service struct {
	store   *poststate.Store
	refresh RefreshFunc
	logger  *slog.Logger
	pending map[toggleKey]*pendingToggle
	seq     uint64
	mu      sync.Mutex
}

// NewService creates a sync service over store. refresh may be nil.
func NewService(store *poststate.Store, refresh RefreshFunc, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		store:   store,
		refresh: refresh,
		logger:  logger,
		pending: make(map[toggleKey]*pendingToggle),
	}
}

func (s *service) SyncPostState(id posts.ID, state poststate.Override) {
	s.store.SyncPostState(id, state)
}

func (s *service) BatchUpdatePostStates(updates []StateUpdate) {
	for _, u := range updates {
		s.store.SyncPostState(u.ID, u.State)
	}
}

func (s *service) UpdatePostLike(post posts.Post, isLiked bool) poststate.LikeState {
	return s.store.UpdateLike(post.ID, isLiked, likeBaseline(post))
}

func (s *service) UpdatePostShare(post posts.Post, isShared bool) poststate.ShareState {
	return s.store.UpdateShare(post.ID, isShared, shareBaseline(post))
}

func (s *service) UpdatePostComment(id posts.ID, commentCount int) {
	s.store.UpdateComment(id, commentCount)
}

func (s *service) HandleCommentCountUpdate(id posts.ID, commentCount int) {
	s.store.UpdateComment(id, commentCount)
}

func (s *service) GetPostLikeState(id posts.ID) (poststate.LikeState, bool) {
	patch, ok := s.store.GetLike(id)
	if !ok {
		return poststate.LikeState{}, false
	}
	return patch.Complete()
}

func (s *service) GetPostShareState(id posts.ID) (poststate.ShareState, bool) {
	patch, ok := s.store.GetShare(id)
	if !ok {
		return poststate.ShareState{}, false
	}
	return patch.Complete()
}

func (s *service) GetPostCommentState(id posts.ID) (poststate.CommentState, bool) {
	patch, ok := s.store.GetComment(id)
	if !ok {
		return poststate.CommentState{}, false
	}
	return patch.Complete()
}

func (s *service) GetSyncedPost(post posts.Post) posts.Post {
	override, ok := s.store.Get(post.ID)
	if !ok {
		return post
	}

	like := override.Like.Resolve(likeBaseline(post))
	share := override.Share.Resolve(shareBaseline(post))
	comment := override.Comment.Resolve(commentBaseline(post))

	// post is a copy; only the social fields are rewritten
	post.IsLiked = like.IsLiked
	post.LikeCount = like.LikeCount
	post.IsShared = share.IsShared
	post.ShareCount = share.ShareCount
	post.CommentCount = comment.CommentCount
	return post
}

func (s *service) GetPostsWithSyncedStates(list []posts.Post) []posts.Post {
	if list == nil {
		return nil
	}
	out := make([]posts.Post, len(list))
	for i, p := range list {
		out[i] = s.GetSyncedPost(p)
	}
	return out
}

func (s *service) HandleLikeToggle(ctx context.Context, post posts.Post, call RemoteCall, handlers ToggleHandlers) Outcome {
	return s.toggle(ctx, post, s.likeAccess(), call, handlers)
}

func (s *service) HandleShareToggle(ctx context.Context, post posts.Post, call RemoteCall, handlers ToggleHandlers) Outcome {
	return s.toggle(ctx, post, s.shareAccess(), call, handlers)
}

// toggle runs the optimistic update protocol for one facet:
// capture, write the flipped value, call the server, then commit or restore.
// Overlapping toggles on the same key form a chain; only the newest resolution
// is applied and a failure restores the value from before the chain started.
func (s *service) toggle(ctx context.Context, post posts.Post, access facetAccess, call RemoteCall, handlers ToggleHandlers) Outcome {
	if call == nil {
		if handlers.OnError != nil {
			handlers.OnError(ErrNoRemoteCall)
		}
		return OutcomeRolledBack
	}

	key := toggleKey{id: post.ID, facet: access.facet}

	s.mu.Lock()
	p, exists := s.pending[key]
	if !exists {
		p = &pendingToggle{base: access.capture(post)}
		s.pending[key] = p
	}
	proposed := !access.current(post)
	access.apply(post, proposed)
	s.seq++
	seq := s.seq
	p.newest = seq
	p.inflight++
	p.settled = false
	s.mu.Unlock()

	s.logger.Debug("optimistic toggle applied",
		"post", post.ID,
		"facet", access.facet,
		"value", proposed,
		"seq", seq)

	err := call(ctx)

	s.mu.Lock()
	p.inflight--
	if p.inflight == 0 && s.pending[key] == p {
		delete(s.pending, key)
	}

	// Dropped by ClearStates, or overtaken by a newer toggle on the same key
	if p.cleared || p.newest != seq {
		needRefresh := false
		if !p.cleared {
			if err == nil {
				p.staleSucceeded = true
				// The newest call already failed and restored the base, yet this older one
				// reached the server, so local state is now behind.
				needRefresh = p.settled && p.rolledBack
			} else {
				p.staleFailed = true
			}
			// Refreshes issued while this call was in flight skipped the facet, so
			// refetch once the chain has drained.
			if p.inflight == 0 && p.settled && p.drifted() {
				needRefresh = true
			}
		}
		s.mu.Unlock()

		s.logger.Debug("stale toggle resolution discarded",
			"post", post.ID,
			"facet", access.facet,
			"seq", seq,
			"error", err)
		if needRefresh {
			s.requestRefresh(ctx, post.ID)
		}
		return OutcomeSuperseded
	}

	p.settled = true
	if err != nil {
		p.rolledBack = true
		access.restore(post.ID, p.base)
		needRefresh := p.staleSucceeded
		s.mu.Unlock()

		s.logger.Error("toggle failed, state rolled back",
			"error", err,
			"post", post.ID,
			"facet", access.facet)
		if handlers.OnError != nil {
			handlers.OnError(err)
		}
		if needRefresh {
			s.requestRefresh(ctx, post.ID)
		}
		return OutcomeRolledBack
	}

	p.rolledBack = false
	s.mu.Unlock()

	s.logger.Info("toggle committed",
		"post", post.ID,
		"facet", access.facet,
		"value", proposed)
	if handlers.OnSuccess != nil {
		handlers.OnSuccess(proposed)
	}
	s.requestRefresh(ctx, post.ID)
	return OutcomeCommitted
}

func (s *service) ReconcileWithServer(list []posts.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, post := range list {
		state := poststate.Override{
			Comment: poststate.CommentOf(post.CommentCount),
		}
		if _, pending := s.pending[toggleKey{id: post.ID, facet: FacetLike}]; !pending {
			state.Like = poststate.LikeOf(post.IsLiked, post.LikeCount)
		}
		if _, pending := s.pending[toggleKey{id: post.ID, facet: FacetShare}]; !pending {
			state.Share = poststate.ShareOf(post.IsShared, post.ShareCount)
		}
		s.store.SyncPostState(post.ID, state)
	}

	s.logger.Debug("post states reconciled with server", "post_count", len(list))
}

func (s *service) RefreshPosts(ctx context.Context) error {
	if s.refresh == nil {
		return nil
	}
	return s.refresh(ctx)
}

// requestRefresh asks the screen layer to refetch. Failures only cost freshness.
func (s *service) requestRefresh(ctx context.Context, id posts.ID) {
	if err := s.RefreshPosts(ctx); err != nil {
		s.logger.Warn("post refresh after toggle failed",
			"error", err,
			"post", id)
	}
}

func (s *service) ClearStates(ctx context.Context) {
	s.mu.Lock()
	for _, p := range s.pending {
		p.cleared = true
	}
	s.pending = make(map[toggleKey]*pendingToggle)
	s.store.Clear()
	s.mu.Unlock()

	if err := s.store.Flush(ctx); err != nil {
		s.logger.Warn("failed to wait for persisted post states to be erased", "error", err)
	}
}
