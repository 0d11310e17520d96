package vote

import (
	"errors"
	"log"
	"net/http"

	"Atlas/internal/api/handlers"
	"Atlas/internal/atproto/pds"
	"Atlas/internal/core/votes"
)

// handleServiceError converts service errors to appropriate HTTP responses
// Error names are UpperCamelCase per XRPC convention
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votes.ErrInvalidSubject):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidSubject", "The subject reference is invalid or malformed")
	case errors.Is(err, votes.ErrInvalidDirection):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Vote direction must be 'up' or 'down'")
	case errors.Is(err, pds.ErrUnauthorized):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "PDS session expired, log in again")
	case errors.Is(err, pds.ErrForbidden):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized", "PDS refused access to the vote collection")
	case errors.Is(err, pds.ErrRateLimited):
		handlers.WriteError(w, http.StatusTooManyRequests, "RateLimitExceeded", "PDS rate limit exceeded")
	default:
		var writeErr *votes.RemoteWriteError
		var listErr *votes.RemoteListError
		if errors.As(err, &writeErr) || errors.As(err, &listErr) {
			log.Printf("PDS request failed: %v", err)
			handlers.WriteError(w, http.StatusBadGateway, "UpstreamError", "The PDS rejected the request")
			return
		}
		// Internal server error - log the actual error for debugging
		log.Printf("XRPC handler error: %v", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}

// writeEmpty writes the empty-object success body used by every vote procedure
func writeEmpty(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("{}\n")); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
