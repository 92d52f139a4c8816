package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"Postsync/internal/api/handlers"
)

// RateLimiter caps how many bridge requests one client host may make per window.
// Windows are fixed and start at a client's first request.
type RateLimiter struct {
	windows  map[string]*clientWindow
	now      func() time.Time
	done     chan struct{}
	limit    int
	length   time.Duration
	mu       sync.Mutex
	stopOnce sync.Once
}

type clientWindow struct {
	expires time.Time
	used    int
}

// NewRateLimiter allows limit requests per client in every window of length.
// A sweeper goroutine drops expired windows until Stop is called.
func NewRateLimiter(limit int, length time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*clientWindow),
		now:     func() time.Time { return time.Now().UTC() },
		done:    make(chan struct{}),
		limit:   limit,
		length:  length,
	}

	go rl.sweepLoop()

	return rl
}

// Middleware rejects over-limit clients with a JSON 429 and a Retry-After
// header counting down to the end of their window.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wait, ok := rl.take(clientHost(r))
		if !ok {
			w.Header().Set("Retry-After", retryAfterSeconds(wait))
			handlers.WriteError(w, http.StatusTooManyRequests, "RateLimitExceeded", "Too many requests from this client, retry later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop ends the sweeper
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// take spends one request from host's window. When the window is used up it
// returns how long until the window resets.
func (rl *RateLimiter) take(host string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	win, exists := rl.windows[host]
	if !exists || !now.Before(win.expires) {
		win = &clientWindow{expires: now.Add(rl.length)}
		rl.windows[host] = win
	}

	if win.used >= rl.limit {
		return win.expires.Sub(now), false
	}
	win.used++
	return 0, true
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.length)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep forgets every client whose window has ended
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for host, win := range rl.windows {
		if !now.Before(win.expires) {
			delete(rl.windows, host)
		}
	}
}

// clientHost keys the limiter. Behind a proxy the first X-Forwarded-For hop
// names the original client; otherwise the port is stripped so reconnects
// share a window.
func clientHost(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// retryAfterSeconds rounds up, never below one second
func retryAfterSeconds(wait time.Duration) string {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
