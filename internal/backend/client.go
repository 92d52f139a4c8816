// Package backend is the REST client for the remote post service.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"Postsync/internal/core/posts"
)

const (
	defaultTimeout = 10 * time.Second
	userAgent      = "Postsync/1.0"

	// maxErrorBody caps how much of an error response is read into the message
	maxErrorBody = 4 << 10
)

// Operation names, used for circuit breaker bookkeeping and logs
const (
	opFetchPosts        = "fetch_posts"
	opToggleLike        = "toggle_like"
	opToggleShare       = "toggle_share"
	opFetchCommentCount = "fetch_comment_count"
)

// Config holds the client's connection settings
type Config struct {
	BaseURL string
	Token   string

	// Timeout bounds each HTTP round trip. Zero selects a default.
	Timeout time.Duration

	// RequestsPerSecond and Burst throttle outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int

	// FailureThreshold consecutive failures open the circuit for OpenDuration
	FailureThreshold int
	OpenDuration     time.Duration
}

// Client implements posts.RemoteService over HTTP
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitBreaker
	logger     *slog.Logger
	baseURL    string
	token      string
}

var _ posts.RemoteService = (*Client)(nil)

// NewClient creates a backend client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		breaker:    newCircuitBreaker(cfg.FailureThreshold, cfg.OpenDuration, logger),
		logger:     logger,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
	}
}

// FetchPosts returns the current feed
func (c *Client) FetchPosts(ctx context.Context) ([]posts.Post, error) {
	var resp posts.FeedResponse
	if err := c.do(ctx, opFetchPosts, http.MethodGet, "/api/posts", &resp); err != nil {
		return nil, err
	}
	if resp.Posts == nil {
		return []posts.Post{}, nil
	}
	return resp.Posts, nil
}

// ToggleLike flips the caller's like on the post server-side
func (c *Client) ToggleLike(ctx context.Context, id posts.ID) error {
	return c.do(ctx, opToggleLike, http.MethodPost, "/api/posts/"+id.String()+"/like", nil)
}

// ToggleShare flips the caller's share on the post server-side
func (c *Client) ToggleShare(ctx context.Context, id posts.ID) error {
	return c.do(ctx, opToggleShare, http.MethodPost, "/api/posts/"+id.String()+"/share", nil)
}

// FetchCommentCount returns the exact comment total for a post
func (c *Client) FetchCommentCount(ctx context.Context, id posts.ID) (int, error) {
	var resp posts.CommentCountResponse
	if err := c.do(ctx, opFetchCommentCount, http.MethodGet, "/api/posts/"+id.String()+"/comments/count", &resp); err != nil {
		return 0, err
	}
	if resp.Count < 0 {
		return 0, nil
	}
	return resp.Count, nil
}

// do performs one call, guarded by the limiter and the per-operation circuit.
// out may be nil when the response body is not needed.
func (c *Client) do(ctx context.Context, op, method, path string, out any) error {
	if err := c.breaker.canAttempt(op); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", op, err)
	}

	err := c.roundTrip(ctx, op, method, path, out)
	switch {
	case errors.Is(err, context.Canceled):
		// the caller gave up; no signal either way
	case tripsBreaker(err):
		c.breaker.recordFailure(op, err)
	default:
		c.breaker.recordSuccess(op)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend call",
		"operation", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return wrapStatus(op, resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", op, err)
	}
	return nil
}

// readErrorMessage extracts a human readable message from an error body.
// The backend uses {"error": "...", "message": "..."}; anything else is returned as text.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
