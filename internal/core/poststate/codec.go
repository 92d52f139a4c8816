package poststate

import (
	"encoding/json"
	"fmt"

	"Postsync/internal/core/posts"
)

// stateFormatVersion is bumped whenever persistedEntry changes shape
const stateFormatVersion = 1

// persistedBlob is the on-disk shape of the whole state map
type persistedBlob struct {
	Posts   map[string]persistedEntry `json:"posts"`
	Version int                       `json:"version"`
}

// persistedEntry flattens an Override; absent fields were never seeded
type persistedEntry struct {
	IsLiked      *bool `json:"isLiked,omitempty"`
	LikeCount    *int  `json:"likeCount,omitempty"`
	IsShared     *bool `json:"isShared,omitempty"`
	ShareCount   *int  `json:"shareCount,omitempty"`
	CommentCount *int  `json:"commentCount,omitempty"`
}

func encodeStates(states map[posts.ID]*Override) (string, error) {
	blob := persistedBlob{
		Version: stateFormatVersion,
		Posts:   make(map[string]persistedEntry, len(states)),
	}
	for id, o := range states {
		if o == nil || o.IsZero() {
			continue
		}
		blob.Posts[id.String()] = persistedEntry{
			IsLiked:      o.Like.IsLiked,
			LikeCount:    o.Like.LikeCount,
			IsShared:     o.Share.IsShared,
			ShareCount:   o.Share.ShareCount,
			CommentCount: o.Comment.CommentCount,
		}
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return "", fmt.Errorf("failed to encode post states: %w", err)
	}
	return string(data), nil
}

// decodeStates parses a persisted blob. Any structural problem makes the
// whole payload unusable; callers treat that as "no prior state".
func decodeStates(raw string) (map[posts.ID]*Override, error) {
	var blob persistedBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if blob.Version != stateFormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedState, blob.Version)
	}

	states := make(map[posts.ID]*Override, len(blob.Posts))
	for key, entry := range blob.Posts {
		id, err := posts.ParseID(key)
		if err != nil {
			return nil, fmt.Errorf("%w: bad post id %q", ErrMalformedState, key)
		}
		o := Override{}.merge(Override{
			Like:    LikePatch{IsLiked: entry.IsLiked, LikeCount: entry.LikeCount},
			Share:   SharePatch{IsShared: entry.IsShared, ShareCount: entry.ShareCount},
			Comment: CommentPatch{CommentCount: entry.CommentCount},
		})
		if o.IsZero() {
			continue
		}
		states[id] = &o
	}
	return states, nil
}
