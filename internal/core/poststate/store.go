// Package poststate holds the client's locally known like/share/comment state per post.
//
// The Store is the single source of truth every screen reads from. It is seeded from
// server records, mutated optimistically by toggles, and mirrored to a KeyValueStore so
// the last known values survive a restart.
package poststate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"Postsync/internal/core/posts"
)

const (
	// DefaultKey is the well-known key the state map is persisted under
	DefaultKey = "post_states.v1"

	// DefaultDebounce coalesces bursts of toggles into one persisted write
	DefaultDebounce = 250 * time.Millisecond

	defaultWriteTimeout = 5 * time.Second
)

// Options configures a Store
type Options struct {
	// Key overrides DefaultKey
	Key string

	// Debounce is the persistence coalescing window. Zero selects DefaultDebounce;
	// a negative value writes after every mutation.
	Debounce time.Duration

	// WriteTimeout bounds each KeyValueStore call made by the mirror
	WriteTimeout time.Duration
}

// Store maps post IDs to their locally known state.
// Reads return copies; the map itself never leaves the store.
type Store struct {
	states   map[posts.ID]*Override
	kv       KeyValueStore
	mirror   *mirror
	logger   *slog.Logger
	key      string
	mu       sync.RWMutex
	hydrated bool
}

// NewStore creates an empty store. A nil kv keeps state in memory only.
// Call Hydrate once before screens read from the store and Close on shutdown.
func NewStore(kv KeyValueStore, opts Options, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	s := &Store{
		states: make(map[posts.ID]*Override),
		kv:     kv,
		key:    opts.Key,
		logger: logger,
	}
	if kv != nil {
		s.mirror = newMirror(kv, opts.Key, opts.Debounce, opts.WriteTimeout, s.encode, logger)
	}
	return s
}

// Hydrate loads the persisted mirror into the store. It may run once per store.
// A missing, unreadable or malformed payload leaves the store empty and is not an error.
// Fields written before Hydrate completes take precedence over persisted ones.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return ErrAlreadyHydrated
	}
	s.hydrated = true
	s.mu.Unlock()

	if s.kv == nil {
		return nil
	}

	raw, found, err := s.kv.ReadKey(ctx, s.key)
	if err != nil {
		s.logger.Warn("failed to read persisted post states, starting empty",
			"error", err,
			"key", s.key)
		return nil
	}
	if !found || raw == "" {
		s.logger.Debug("no persisted post states", "key", s.key)
		return nil
	}

	restored, err := decodeStates(raw)
	if err != nil {
		s.logger.Warn("discarding malformed persisted post states",
			"error", err,
			"key", s.key)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merged := 0
	for id, o := range restored {
		existing, exists := s.states[id]
		if !exists {
			s.states[id] = o
			continue
		}
		// Fields written before hydration shadow persisted ones field by field
		combined := o.merge(*existing)
		*existing = combined
		merged++
	}
	if merged > 0 && s.mirror != nil {
		s.mirror.scheduleWrite()
	}

	s.logger.Info("post states hydrated",
		"key", s.key,
		"post_count", len(restored))
	return nil
}

// SyncPostState merges patch into the entry for id, field by field.
// Fields left nil in patch keep their current value.
func (s *Store) SyncPostState(id posts.ID, patch Override) {
	if patch.IsZero() {
		return
	}
	s.mutate(id, func(o *Override) {
		*o = o.merge(patch)
	})
}

// UpdateLike sets the like flag. The count moves by one only when the flag
// actually changes; setting true on an already liked post is a no-op on the count.
// baseline supplies any field the store has not seen yet, so an unseeded post is
// seeded from the caller's current value rather than from zero.
func (s *Store) UpdateLike(id posts.ID, isLiked bool, baseline LikeState) LikeState {
	var next LikeState
	s.mutate(id, func(o *Override) {
		current := o.Like.Resolve(baseline)
		next = LikeState{
			IsLiked:   isLiked,
			LikeCount: toggleCount(current.IsLiked, isLiked, current.LikeCount),
		}
		o.Like = LikeOf(next.IsLiked, next.LikeCount)
	})
	return next
}

// UpdateShare is UpdateLike for the share facet
func (s *Store) UpdateShare(id posts.ID, isShared bool, baseline ShareState) ShareState {
	var next ShareState
	s.mutate(id, func(o *Override) {
		current := o.Share.Resolve(baseline)
		next = ShareState{
			IsShared:   isShared,
			ShareCount: toggleCount(current.IsShared, isShared, current.ShareCount),
		}
		o.Share = ShareOf(next.IsShared, next.ShareCount)
	})
	return next
}

// UpdateComment sets the comment total. The value is absolute, never a delta.
func (s *Store) UpdateComment(id posts.ID, commentCount int) {
	s.mutate(id, func(o *Override) {
		o.Comment = CommentOf(commentCount)
	})
}

// RestoreLike puts back a previously captured like facet exactly as it was
func (s *Store) RestoreLike(id posts.ID, previous LikePatch) {
	s.mutate(id, func(o *Override) {
		o.Like = previous.clone()
	})
}

// RestoreShare puts back a previously captured share facet exactly as it was
func (s *Store) RestoreShare(id posts.ID, previous SharePatch) {
	s.mutate(id, func(o *Override) {
		o.Share = previous.clone()
	})
}

// GetLike returns the stored like facet. ok is false when the facet was never seeded;
// the caller then falls back to the server value.
func (s *Store) GetLike(id posts.ID) (LikePatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.states[id]
	if !exists || o.Like.IsZero() {
		return LikePatch{}, false
	}
	return o.Like.clone(), true
}

// GetShare returns the stored share facet, see GetLike
func (s *Store) GetShare(id posts.ID) (SharePatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.states[id]
	if !exists || o.Share.IsZero() {
		return SharePatch{}, false
	}
	return o.Share.clone(), true
}

// GetComment returns the stored comment facet, see GetLike
func (s *Store) GetComment(id posts.ID) (CommentPatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.states[id]
	if !exists || o.Comment.IsZero() {
		return CommentPatch{}, false
	}
	return o.Comment.clone(), true
}

// Get returns a copy of the whole entry for id
func (s *Store) Get(id posts.ID) (Override, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, exists := s.states[id]
	if !exists || o.IsZero() {
		return Override{}, false
	}
	return o.clone(), true
}

// Snapshot returns a copy of every entry
func (s *Store) Snapshot() map[posts.ID]Override {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[posts.ID]Override, len(s.states))
	for id, o := range s.states {
		if o.IsZero() {
			continue
		}
		out[id] = o.clone()
	}
	return out
}

// Len returns the number of posts with at least one seeded field
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.states {
		if !o.IsZero() {
			n++
		}
	}
	return n
}

// Clear wipes every entry and erases the persisted mirror. Pending debounced
// writes are dropped. The erase itself is asynchronous; use Flush to wait for it.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := len(s.states)
	s.states = make(map[posts.ID]*Override)
	if s.mirror != nil {
		s.mirror.scheduleDelete()
	}

	s.logger.Info("post states cleared", "post_count", cleared)
}

// Flush blocks until every mutation made so far has reached the KeyValueStore
// (or failed and been logged).
func (s *Store) Flush(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}
	return s.mirror.flush(ctx)
}

// Close flushes pending writes and stops the persistence writer.
// Mutations after Close stay in memory only.
func (s *Store) Close(ctx context.Context) error {
	if s.mirror == nil {
		return nil
	}
	return s.mirror.close(ctx)
}

// mutate applies fn to the entry for id, creating it if needed, and schedules
// a mirror write. The write is queued under the lock so the persisted order
// matches the order mutations were applied.
func (s *Store) mutate(id posts.ID, fn func(o *Override)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.states[id]
	if !exists {
		o = &Override{}
		s.states[id] = o
	}
	fn(o)

	if s.mirror != nil {
		s.mirror.scheduleWrite()
	}
}

func (s *Store) encode() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encodeStates(s.states)
}
