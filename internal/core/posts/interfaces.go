package posts

import "context"

// RemoteService is the backend's post surface as seen by the client.
// Every call is one HTTP round trip and may fail with a network or status error.
type RemoteService interface {
	// FetchPosts returns the viewer's feed in server order
	FetchPosts(ctx context.Context) ([]Post, error)

	// ToggleLike flips the viewer's like on a post
	ToggleLike(ctx context.Context, id ID) error

	// ToggleShare flips the viewer's share on a post
	ToggleShare(ctx context.Context, id ID) error

	// FetchCommentCount returns the authoritative comment total for a post
	FetchCommentCount(ctx context.Context, id ID) (int, error)
}
