package auth

import (
	"log"
	"net/http"

	"Atlas/internal/api/handlers"
)

// LogoutHandler drops the session cookie
type LogoutHandler struct {
	sessions SessionStore
}

// NewLogoutHandler creates a new logout handler
func NewLogoutHandler(sessions SessionStore) *LogoutHandler {
	return &LogoutHandler{sessions: sessions}
}

// HandleLogout clears the session. The PDS session itself is left to expire.
// POST /xrpc/pics.atmo.atlas.logout
func (h *LogoutHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		log.Printf("Failed to clear session: %v", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to clear session")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("{}\n")); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
