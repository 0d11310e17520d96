package vote

import (
	"encoding/json"
	"net/http"

	"Atlas/internal/api/handlers"
	"Atlas/internal/api/middleware"
	"Atlas/internal/core/votes"
)

// CastVoteHandler handles up/down votes
type CastVoteHandler struct {
	service votes.Service
}

// NewCastVoteHandler creates a new cast vote handler
func NewCastVoteHandler(service votes.Service) *CastVoteHandler {
	return &CastVoteHandler{
		service: service,
	}
}

// CastVoteInput represents the request body for casting a vote
type CastVoteInput struct {
	Subject   string `json:"subject" validate:"required,startswith=at://"`
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// HandleCastVote writes or overwrites the viewer's vote on a POI
// POST /xrpc/pics.atmo.atlas.castVote
//
// Request body: { "subject": "at://...", "direction": "up" | "down" }
// Response: {}
func (h *CastVoteHandler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, handlers.MaxRequestBodyBytes)

	var input CastVoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	if err := handlers.ValidateInput(input); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	client := middleware.GetPDSClient(r)
	if client == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	if err := h.service.CastVote(r.Context(), client, input.Subject, votes.Kind(input.Direction)); err != nil {
		handleServiceError(w, err)
		return
	}

	writeEmpty(w)
}
