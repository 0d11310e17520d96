package vote

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"Atlas/internal/api/handlers"
	"Atlas/internal/api/middleware"
	"Atlas/internal/core/votes"
)

const mirrorTimeout = 5 * time.Second

// GetUserVotesHandler lists the viewer's vote index
type GetUserVotesHandler struct {
	service votes.Service
	mirror  votes.Repository
}

// NewGetUserVotesHandler creates a new get user votes handler.
// mirror may be nil when no database is configured.
func NewGetUserVotesHandler(service votes.Service, mirror votes.Repository) *GetUserVotesHandler {
	return &GetUserVotesHandler{
		service: service,
		mirror:  mirror,
	}
}

// GetUserVotesOutput represents the response body
type GetUserVotesOutput struct {
	Votes votes.Index `json:"votes"`
}

// HandleGetUserVotes rebuilds the index from the viewer's PDS
// GET /xrpc/pics.atmo.atlas.getUserVotes
//
// Response: { "votes": { "vote:<uri>": {...}, "save:<uri>": {...} } }
func (h *GetUserVotesHandler) HandleGetUserVotes(w http.ResponseWriter, r *http.Request) {
	client := middleware.GetPDSClient(r)
	if client == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	index, err := h.service.GetUserVotes(r.Context(), client)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.mirror != nil {
		h.snapshot(r.Context(), middleware.GetUserDID(r), index)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(GetUserVotesOutput{Votes: index}); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// snapshot stores the fresh index in the mirror. Failures are only logged.
func (h *GetUserVotesHandler) snapshot(ctx context.Context, voterDID string, index votes.Index) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()

	if err := h.mirror.ReplaceForVoter(ctx, voterDID, index); err != nil {
		log.Printf("Failed to mirror vote index for %s: %v", voterDID, err)
	}
}
