package feed_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Postsync/internal/api/handlers/feed"
	"Postsync/internal/api/routes"
	"Postsync/internal/backend"
	"Postsync/internal/core/poststate"
	"Postsync/internal/core/posts"
	"Postsync/internal/core/postsync"
)

// fakeRemote implements posts.RemoteService over an in-memory feed
type fakeRemote struct {
	feed        []posts.Post
	fetchErr    error
	toggleErr   error
	commentErr  error
	comments    int
	fetchCalls  int
	toggleCalls int
	mu          sync.Mutex
}

func (f *fakeRemote) FetchPosts(ctx context.Context) ([]posts.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]posts.Post, len(f.feed))
	copy(out, f.feed)
	return out, nil
}

func (f *fakeRemote) ToggleLike(ctx context.Context, id posts.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggleCalls++
	if f.toggleErr != nil {
		return f.toggleErr
	}
	for i := range f.feed {
		if f.feed[i].ID == id {
			f.feed[i].IsLiked = !f.feed[i].IsLiked
			if f.feed[i].IsLiked {
				f.feed[i].LikeCount++
			} else {
				f.feed[i].LikeCount--
			}
		}
	}
	return nil
}

func (f *fakeRemote) ToggleShare(ctx context.Context, id posts.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggleCalls++
	if f.toggleErr != nil {
		return f.toggleErr
	}
	for i := range f.feed {
		if f.feed[i].ID == id {
			f.feed[i].IsShared = !f.feed[i].IsShared
			if f.feed[i].IsShared {
				f.feed[i].ShareCount++
			} else {
				f.feed[i].ShareCount--
			}
		}
	}
	return nil
}

func (f *fakeRemote) FetchCommentCount(ctx context.Context, id posts.ID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments, f.commentErr
}

type testBridge struct {
	router http.Handler
	remote *fakeRemote
	store  *poststate.Store
	seen   *feed.SeenPosts
}

func newTestBridge(t *testing.T, remote *fakeRemote) *testBridge {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := poststate.NewStore(nil, poststate.Options{}, logger)
	seen, err := feed.NewSeenPosts(16)
	require.NoError(t, err)

	var h *feed.Handler
	svc := postsync.NewService(store, func(ctx context.Context) error {
		return h.Refresh(ctx)
	}, logger)
	h = feed.NewHandler(svc, remote, seen, logger)

	r := chi.NewRouter()
	routes.RegisterFeedRoutes(r, h)
	return &testBridge{router: r, remote: remote, store: store, seen: seen}
}

func (b *testBridge) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	return w
}

func samplePosts() []posts.Post {
	return []posts.Post{
		{ID: 32, Content: "first", AuthorID: 1, IsLiked: false, LikeCount: 4, ShareCount: 1, CommentCount: 2},
		{ID: 7, Content: "second", AuthorID: 2, IsLiked: true, LikeCount: 10, IsShared: true, ShareCount: 3},
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out), "body: %s", w.Body.String())
	return out
}

func TestHandleGetFeed(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{feed: samplePosts()})

	w := b.do(t, http.MethodGet, "/api/feed", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[posts.FeedResponse](t, w)
	require.Len(t, resp.Posts, 2)
	assert.Equal(t, posts.ID(32), resp.Posts[0].ID)
	assert.Equal(t, posts.ID(7), resp.Posts[1].ID)
	assert.Equal(t, 2, b.seen.Len())
	assert.Equal(t, 0, b.store.Len(), "fetching leaves the store untouched")
}

func TestHandleGetFeed_OverridesShadowServerValues(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{feed: samplePosts()})
	b.store.SyncPostState(32, poststate.Override{Like: poststate.LikeOf(true, 40)})

	w := b.do(t, http.MethodGet, "/api/feed", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[posts.FeedResponse](t, w)
	require.Len(t, resp.Posts, 2)
	assert.True(t, resp.Posts[0].IsLiked)
	assert.Equal(t, 40, resp.Posts[0].LikeCount)

	like, ok := b.store.GetLike(32)
	require.True(t, ok)
	assert.Equal(t, poststate.LikeOf(true, 40), like)
}

func TestHandleToggleLike_RefreshReconcilesWithServer(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{feed: samplePosts()})
	require.Equal(t, http.StatusOK, b.do(t, http.MethodGet, "/api/feed", "").Code)

	require.Equal(t, http.StatusOK, b.do(t, http.MethodPost, "/api/posts/7/share", "").Code)

	// the post-toggle refresh absorbs server counts for every settled post
	comment, ok := b.store.GetComment(32)
	require.True(t, ok)
	assert.Equal(t, 2, *comment.CommentCount)
	share, _ := b.store.GetShare(7)
	assert.Equal(t, poststate.ShareOf(false, 2), share)
}

func TestHandleGetFeed_BackendDown(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{fetchErr: backend.ErrCircuitOpen})

	w := b.do(t, http.MethodGet, "/api/feed", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "BackendUnavailable")
}

func TestHandleToggleLike_Commits(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{feed: samplePosts()})
	require.Equal(t, http.StatusOK, b.do(t, http.MethodGet, "/api/feed", "").Code)

	w := b.do(t, http.MethodPost, "/api/posts/32/like", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[feed.ToggleResponse](t, w)
	assert.Equal(t, "committed", resp.Outcome)
	require.NotNil(t, resp.State.Like)
	assert.Equal(t, poststate.LikeState{IsLiked: true, LikeCount: 5}, *resp.State.Like)

	// another screen reading the same post sees the same state
	w = b.do(t, http.MethodGet, "/api/posts/32/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[feed.StateView](t, w)
	assert.Equal(t, poststate.LikeState{IsLiked: true, LikeCount: 5}, *view.Like)
}

func TestHandleToggleLike_RollsBack(t *testing.T) {
	remote := &fakeRemote{feed: samplePosts()}
	b := newTestBridge(t, remote)
	require.Equal(t, http.StatusOK, b.do(t, http.MethodGet, "/api/feed", "").Code)

	remote.mu.Lock()
	remote.toggleErr = errors.New("backend exploded")
	remote.mu.Unlock()

	w := b.do(t, http.MethodPost, "/api/posts/7/like", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "RemoteCallFailed")

	w = b.do(t, http.MethodGet, "/api/posts/7/state", "")
	view := decode[feed.StateView](t, w)
	assert.Equal(t, poststate.LikeState{IsLiked: true, LikeCount: 10}, *view.Like)
}

func TestHandleToggleShare(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{feed: samplePosts()})
	require.Equal(t, http.StatusOK, b.do(t, http.MethodGet, "/api/feed", "").Code)

	w := b.do(t, http.MethodPost, "/api/posts/7/share", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[feed.ToggleResponse](t, w)
	require.NotNil(t, resp.State.Share)
	assert.Equal(t, poststate.ShareState{IsShared: false, ShareCount: 2}, *resp.State.Share)
}

func TestHandleToggle_UnknownPost(t *testing.T) {
	remote := &fakeRemote{feed: samplePosts()}
	b := newTestBridge(t, remote)

	w := b.do(t, http.MethodPost, "/api/posts/32/like", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, remote.toggleCalls)

	w = b.do(t, http.MethodPost, "/api/posts/abc/like", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetPostState_Unknown(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{})

	w := b.do(t, http.MethodGet, "/api/posts/99/state", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpdateComments(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{})

	w := b.do(t, http.MethodPut, "/api/posts/5/comments", `{"commentCount":12}`)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[feed.StateView](t, w)
	require.NotNil(t, view.Comment)
	assert.Equal(t, 12, view.Comment.CommentCount)
	assert.Nil(t, view.Like, "only the comment facet is known")

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"commentCount":`},
		{name: "missing", body: `{}`},
		{name: "negative", body: `{"commentCount":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := b.do(t, http.MethodPut, "/api/posts/5/comments", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleRefreshComments(t *testing.T) {
	remote := &fakeRemote{comments: 21}
	b := newTestBridge(t, remote)

	w := b.do(t, http.MethodPost, "/api/posts/5/comments/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[feed.StateView](t, w)
	assert.Equal(t, 21, view.Comment.CommentCount)

	remote.mu.Lock()
	remote.commentErr = backend.ErrNotFound
	remote.mu.Unlock()
	w = b.do(t, http.MethodPost, "/api/posts/5/comments/refresh", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleClearState(t *testing.T) {
	b := newTestBridge(t, &fakeRemote{feed: samplePosts()})
	require.Equal(t, http.StatusOK, b.do(t, http.MethodGet, "/api/feed", "").Code)
	require.Equal(t, http.StatusOK, b.do(t, http.MethodPut, "/api/posts/32/comments", `{"commentCount":3}`).Code)

	w := b.do(t, http.MethodDelete, "/api/state", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, b.store.Len())
	assert.Equal(t, 0, b.seen.Len())

	w = b.do(t, http.MethodGet, "/api/posts/32/state", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PostNotFound")
}
