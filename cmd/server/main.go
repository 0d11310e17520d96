package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"Atlas/internal/api/middleware"
	"Atlas/internal/api/routes"
	"Atlas/internal/config"
	"Atlas/internal/core/cards"
	"Atlas/internal/core/votes"
	"Atlas/internal/db/migrations"
	postgresRepo "Atlas/internal/db/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal("Invalid server configuration:", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// The vote mirror is optional; without a database the PDS is the only copy
	var mirror votes.Repository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer func() { _ = db.Close() }()

		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database:", err)
		}

		log.Println("Connected to AppView database")

		if err := migrations.Up(db); err != nil {
			log.Fatal("Failed to run migrations:", err)
		}

		log.Println("Migrations completed successfully")

		mirror = postgresRepo.NewVoteRepository(db)
	}

	// Initialize services
	voteService := votes.NewService(cfg.VoteCollection, nil, logger.With("component", "votes"))
	cardService := cards.NewService(cards.NewHTTPFeedSource(cfg.CardFeedURL, 0), cfg.CardImageCDN, logger.With("component", "cards"))

	cookieStore, err := middleware.NewCookieStore(cfg.SessionSecret, !cfg.Dev)
	if err != nil {
		log.Fatal("Failed to create session store:", err)
	}
	sessionAuth := middleware.NewSessionAuth(cookieStore, nil)

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(routes.CORSMiddleware(cfg.AllowedOrigins))

	// Rate limiting: RATE_LIMIT_WRITES per RATE_LIMIT_WINDOW per DID on record writes
	writeLimiter := middleware.NewRateLimiter(cfg.RateLimitWrites, cfg.RateLimitWindow)

	routes.RegisterAuthRoutes(r, sessionAuth, cfg.PDSURL)
	routes.RegisterVoteRoutes(r, voteService, mirror, sessionAuth, writeLimiter)
	routes.RegisterCardRoutes(r, cardService, voteService, sessionAuth)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:              ":" + strings.TrimPrefix(cfg.Port, ":"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Atlas AppView starting on port %s\n", cfg.Port)
	fmt.Printf("PDS URL: %s\n", cfg.PDSURL)
	fmt.Printf("Vote collection: %s\n", cfg.VoteCollection)
	log.Fatal(server.ListenAndServe())
}
