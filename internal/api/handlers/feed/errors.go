package feed

import (
	"errors"
	"log/slog"
	"net/http"

	"Postsync/internal/api/handlers"
	"Postsync/internal/backend"
)

// handleRemoteError converts backend errors to HTTP responses
func handleRemoteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case backend.IsAuthError(err):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Backend rejected the session credentials")
	case errors.Is(err, backend.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")
	case errors.Is(err, backend.ErrRateLimited):
		handlers.WriteError(w, http.StatusTooManyRequests, "RateLimited", "Backend is throttling requests")
	case errors.Is(err, backend.ErrCircuitOpen):
		handlers.WriteError(w, http.StatusServiceUnavailable, "BackendUnavailable", "Backend is temporarily unavailable")
	default:
		logger.Error("backend call failed", "error", err)
		handlers.WriteError(w, http.StatusBadGateway, "RemoteCallFailed", "Backend call failed")
	}
}
