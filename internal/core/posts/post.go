package posts

import (
	"strconv"
	"time"
)

// ID identifies a post on the backend. It is stable for the lifetime of the post
// and is the only key used by the state layer.
type ID int64

// String returns the decimal form used in URLs and persisted keys
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses the decimal form produced by ID.String
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewValidationError("id", "must be an integer")
	}
	return ID(v), nil
}

// Post represents a post record as returned by the backend feed endpoint.
// The social fields (likes, shares, comment count) are the server's view at fetch time
// and may be shadowed by locally known overrides before rendering.
type Post struct {
	CreatedAt    time.Time `json:"createdAt"`
	Content      string    `json:"content"`
	AuthorName   string    `json:"authorName,omitempty"`
	MediaURL     *string   `json:"mediaUrl,omitempty"`
	ID           ID        `json:"id"`
	AuthorID     int64     `json:"authorId"`
	LikeCount    int       `json:"likeCount"`
	ShareCount   int       `json:"shareCount"`
	CommentCount int       `json:"commentCount"`
	IsLiked      bool      `json:"isLiked"`
	IsShared     bool      `json:"isShared"`
}

// FeedResponse is the envelope returned by GET /api/posts
type FeedResponse struct {
	Posts  []Post `json:"posts"`
	Cursor string `json:"cursor,omitempty"`
}

// CommentCountResponse is the envelope returned by GET /api/posts/{id}/comments/count
type CommentCountResponse struct {
	Count int `json:"count"`
}
