package feed

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"Postsync/internal/core/posts"
)

// DefaultSeenPosts bounds how many server records are kept for by-id lookups
const DefaultSeenPosts = 1000

// SeenPosts remembers the latest server record of each recently fetched post,
// so a toggle can be issued by id alone.
type SeenPosts struct {
	cache *lru.Cache[posts.ID, posts.Post]
}

// NewSeenPosts creates a cache holding at most size posts
func NewSeenPosts(size int) (*SeenPosts, error) {
	if size <= 0 {
		size = DefaultSeenPosts
	}
	cache, err := lru.New[posts.ID, posts.Post](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create seen posts cache: %w", err)
	}
	return &SeenPosts{cache: cache}, nil
}

// Remember stores the server record of every post in list
func (s *SeenPosts) Remember(list []posts.Post) {
	for _, p := range list {
		s.cache.Add(p.ID, p)
	}
}

// Lookup returns the last server record seen for id
func (s *SeenPosts) Lookup(id posts.ID) (posts.Post, bool) {
	return s.cache.Get(id)
}

// Purge forgets every post
func (s *SeenPosts) Purge() {
	s.cache.Purge()
}

// Len returns the number of cached posts
func (s *SeenPosts) Len() int {
	return s.cache.Len()
}
