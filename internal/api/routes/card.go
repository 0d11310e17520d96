package routes

import (
	"github.com/go-chi/chi/v5"

	"Atlas/internal/api/handlers/card"
	"Atlas/internal/api/middleware"
	"Atlas/internal/core/cards"
	"Atlas/internal/core/votes"
)

// RegisterCardRoutes registers the card feed endpoint. Works with or without a session.
func RegisterCardRoutes(r chi.Router, cardService cards.Service, voteService votes.Service, auth *middleware.SessionAuth) {
	getCardsHandler := card.NewGetCardsHandler(cardService, voteService)

	r.With(auth.OptionalSession).Get("/xrpc/pics.atmo.atlas.getCards", getCardsHandler.HandleGetCards)
}
