package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"Atlas/internal/api/handlers"
	"Atlas/internal/atproto/pds"
)

// SessionStore persists a PDS session for the browser
type SessionStore interface {
	Save(w http.ResponseWriter, r *http.Request, s *pds.Session) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

// LoginHandler exchanges an app password for a PDS session
type LoginHandler struct {
	sessions SessionStore
	pdsURL   string
}

// NewLoginHandler creates a new login handler that authenticates against pdsURL
func NewLoginHandler(sessions SessionStore, pdsURL string) *LoginHandler {
	return &LoginHandler{
		sessions: sessions,
		pdsURL:   pdsURL,
	}
}

// LoginInput represents the request body for logging in
type LoginInput struct {
	Identifier string `json:"identifier" validate:"required,max=253"`
	Password   string `json:"password" validate:"required"`
}

// LoginOutput represents the response body for a successful login
type LoginOutput struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

// HandleLogin creates a PDS session and stores it in the session cookie
// POST /xrpc/pics.atmo.atlas.login
//
// Request body: { "identifier": "alice.bsky.social", "password": "app-password" }
// Response: { "did": "did:plc:...", "handle": "alice.bsky.social" }
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, handlers.MaxRequestBodyBytes)

	var input LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	if err := handlers.ValidateInput(input); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	session, err := pds.CreateSession(r.Context(), h.pdsURL, input.Identifier, input.Password)
	if err != nil {
		switch {
		case pds.IsAuthError(err), errors.Is(err, pds.ErrBadRequest):
			handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Invalid identifier or password")
		case errors.Is(err, pds.ErrRateLimited):
			handlers.WriteError(w, http.StatusTooManyRequests, "RateLimitExceeded", "PDS rate limit exceeded")
		default:
			log.Printf("createSession failed for %s: %v", input.Identifier, err)
			handlers.WriteError(w, http.StatusBadGateway, "UpstreamError", "Could not reach the PDS")
		}
		return
	}

	if err := h.sessions.Save(w, r, session); err != nil {
		log.Printf("Failed to save session for %s: %v", session.DID, err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to save session")
		return
	}

	log.Printf("Logged in %s (%s)", session.Handle, session.DID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(LoginOutput{DID: session.DID, Handle: session.Handle}); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
