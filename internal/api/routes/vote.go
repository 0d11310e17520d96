package routes

import (
	"github.com/go-chi/chi/v5"

	"Atlas/internal/api/handlers/vote"
	"Atlas/internal/api/middleware"
	"Atlas/internal/core/votes"
)

// RegisterVoteRoutes registers vote-related XRPC endpoints on the router
// Implements pics.atmo.atlas.* endpoints for voting and saving
// mirror may be nil
func RegisterVoteRoutes(r chi.Router, service votes.Service, mirror votes.Repository, auth *middleware.SessionAuth, limiter *middleware.RateLimiter) {
	// Initialize handlers
	castVoteHandler := vote.NewCastVoteHandler(service)
	removeVoteHandler := vote.NewRemoveVoteHandler(service)
	saveHandler := vote.NewSaveHandler(service)
	getUserVotesHandler := vote.NewGetUserVotesHandler(service, mirror)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)

		// Procedure endpoints (POST) - writes to the user's PDS, limited per DID
		r.With(limiter.Middleware).Post("/xrpc/pics.atmo.atlas.castVote", castVoteHandler.HandleCastVote)
		r.With(limiter.Middleware).Post("/xrpc/pics.atmo.atlas.removeVote", removeVoteHandler.HandleRemoveVote)
		r.With(limiter.Middleware).Post("/xrpc/pics.atmo.atlas.savePoi", saveHandler.HandleSavePOI)
		r.With(limiter.Middleware).Post("/xrpc/pics.atmo.atlas.unsavePoi", saveHandler.HandleUnsavePOI)

		// Query endpoints (GET)
		r.Get("/xrpc/pics.atmo.atlas.getUserVotes", getUserVotesHandler.HandleGetUserVotes)
	})
}
