package postsync

import (
	"Postsync/internal/core/poststate"
	"Postsync/internal/core/posts"
)

// Facet names one independently toggled aspect of a post
type Facet int

const (
	FacetLike Facet = iota + 1
	FacetShare
)

func (f Facet) String() string {
	switch f {
	case FacetLike:
		return "like"
	case FacetShare:
		return "share"
	default:
		return "unknown"
	}
}

// Outcome reports how a toggle settled
type Outcome int

const (
	// OutcomeCommitted means the remote call succeeded and the optimistic value stands
	OutcomeCommitted Outcome = iota + 1

	// OutcomeRolledBack means the remote call failed and the facet was restored
	OutcomeRolledBack

	// OutcomeSuperseded means a newer toggle on the same post and facet was issued
	// before this one settled; its resolution was discarded
	OutcomeSuperseded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRolledBack:
		return "rolled_back"
	case OutcomeSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// toggleKey identifies one (post, facet) pair
type toggleKey struct {
	id    posts.ID
	facet Facet
}

// pendingToggle tracks a chain of overlapping toggles on one key.
//
// States per key: no entry (idle), entry with inflight > 0 (pending), and the
// entry removed again once every call in the chain has resolved (settled).
// Only the resolution carrying newest may change state; older ones are stale.
type pendingToggle struct {
	base           poststate.Override // facet value before the first toggle of the chain
	newest         uint64
	inflight       int
	staleSucceeded bool // an older call in the chain reached the server
	staleFailed    bool // an older call in the chain never reached the server
	settled        bool // the newest call resolved
	rolledBack     bool // ...and failed
	cleared        bool // dropped by ClearStates; resolutions never touch the store
}

// drifted reports whether the stale calls of a settled chain left the server
// somewhere other than the value the store holds.
func (p *pendingToggle) drifted() bool {
	if p.rolledBack {
		return p.staleSucceeded
	}
	return p.staleFailed
}

// facetAccess adapts the store's per-facet methods so the toggle state machine
// is written once for likes and shares.
type facetAccess struct {
	// capture returns the exact stored facet, or one seeded from post if unseeded
	capture func(post posts.Post) poststate.Override
	// current resolves the flag value the toggle flips
	current func(post posts.Post) bool
	// apply writes the optimistic value
	apply func(post posts.Post, value bool)
	// restore writes back a captured facet
	restore func(id posts.ID, captured poststate.Override)
	facet Facet
}

func (s *service) likeAccess() facetAccess {
	return facetAccess{
		facet: FacetLike,
		capture: func(post posts.Post) poststate.Override {
			stored, _ := s.store.GetLike(post.ID)
			resolved := stored.Resolve(likeBaseline(post))
			return poststate.Override{Like: poststate.LikeOf(resolved.IsLiked, resolved.LikeCount)}
		},
		current: func(post posts.Post) bool {
			stored, _ := s.store.GetLike(post.ID)
			return stored.Resolve(likeBaseline(post)).IsLiked
		},
		apply: func(post posts.Post, value bool) {
			s.store.UpdateLike(post.ID, value, likeBaseline(post))
		},
		restore: func(id posts.ID, captured poststate.Override) {
			s.store.RestoreLike(id, captured.Like)
		},
	}
}

func (s *service) shareAccess() facetAccess {
	return facetAccess{
		facet: FacetShare,
		capture: func(post posts.Post) poststate.Override {
			stored, _ := s.store.GetShare(post.ID)
			resolved := stored.Resolve(shareBaseline(post))
			return poststate.Override{Share: poststate.ShareOf(resolved.IsShared, resolved.ShareCount)}
		},
		current: func(post posts.Post) bool {
			stored, _ := s.store.GetShare(post.ID)
			return stored.Resolve(shareBaseline(post)).IsShared
		},
		apply: func(post posts.Post, value bool) {
			s.store.UpdateShare(post.ID, value, shareBaseline(post))
		},
		restore: func(id posts.ID, captured poststate.Override) {
			s.store.RestoreShare(id, captured.Share)
		},
	}
}

func likeBaseline(post posts.Post) poststate.LikeState {
	return poststate.LikeState{IsLiked: post.IsLiked, LikeCount: post.LikeCount}
}

func shareBaseline(post posts.Post) poststate.ShareState {
	return poststate.ShareState{IsShared: post.IsShared, ShareCount: post.ShareCount}
}

func commentBaseline(post posts.Post) poststate.CommentState {
	return poststate.CommentState{CommentCount: post.CommentCount}
}
