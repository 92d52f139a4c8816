package feed

import (
	"net/http"
)

// HandleClearState forgets every locally known post state, for logout
// DELETE /api/state
func (h *Handler) HandleClearState(w http.ResponseWriter, r *http.Request) {
	h.sync.ClearStates(r.Context())
	h.seen.Purge()

	h.logger.Info("post state cleared")
	w.WriteHeader(http.StatusNoContent)
}
