package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"Atlas/internal/api/handlers/auth"
	"Atlas/internal/api/middleware"
)

// RegisterAuthRoutes registers password login/logout endpoints with dedicated rate limiting
func RegisterAuthRoutes(r chi.Router, sessions *middleware.SessionAuth, pdsURL string) {
	// Login endpoint: 10 req/min per IP (credential stuffing protection)
	loginLimiter := middleware.NewRateLimiter(10, 1*time.Minute)

	loginHandler := auth.NewLoginHandler(sessions, pdsURL)
	logoutHandler := auth.NewLogoutHandler(sessions)

	r.With(loginLimiter.Middleware).Post("/xrpc/pics.atmo.atlas.login", loginHandler.HandleLogin)
	r.Post("/xrpc/pics.atmo.atlas.logout", logoutHandler.HandleLogout)
}
