package card

import (
	"encoding/json"
	"log"
	"net/http"

	"Atlas/internal/api/handlers"
	"Atlas/internal/api/middleware"
	"Atlas/internal/core/cards"
	"Atlas/internal/core/votes"
)

// GetCardsHandler serves the POIs offered for voting
type GetCardsHandler struct {
	cards cards.Service
	votes votes.Service
}

// NewGetCardsHandler creates a new get cards handler
func NewGetCardsHandler(cardService cards.Service, voteService votes.Service) *GetCardsHandler {
	return &GetCardsHandler{
		cards: cardService,
		votes: voteService,
	}
}

// GetCardsOutput represents the response body
type GetCardsOutput struct {
	Cards []*cards.Card `json:"cards"`
}

// HandleGetCards lists recent POIs. With a session, each card carries the viewer's vote and save state.
// GET /xrpc/pics.atmo.atlas.getCards
func (h *GetCardsHandler) HandleGetCards(w http.ResponseWriter, r *http.Request) {
	list, err := h.cards.ListCards(r.Context())
	if err != nil {
		log.Printf("Failed to load cards: %v", err)
		handlers.WriteError(w, http.StatusBadGateway, "UpstreamError", "Card feed unavailable")
		return
	}

	if client := middleware.GetPDSClient(r); client != nil {
		index, err := h.votes.GetUserVotes(r.Context(), client)
		if err != nil {
			// Cards are still useful without viewer state
			log.Printf("Failed to load viewer votes for %s: %v", middleware.GetUserDID(r), err)
		} else {
			h.cards.AnnotateViewer(list, index)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(GetCardsOutput{Cards: list}); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
