// Rebuilds the vote index mirror from the vote records hosted on a PDS
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"

	_ "github.com/lib/pq"

	"Atlas/internal/atproto/pds"
	"Atlas/internal/config"
	"Atlas/internal/core/votes"
	"Atlas/internal/db/migrations"
	postgresRepo "Atlas/internal/db/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	log.Printf("Connecting to database...")
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Up(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	mirror := postgresRepo.NewVoteRepository(db)
	voteService := votes.NewService(cfg.VoteCollection, nil, logger)

	// Reindex the DIDs given as arguments, or every repo on the PDS
	dids := os.Args[1:]
	if len(dids) == 0 {
		log.Printf("Fetching accounts from PDS (%s)...", cfg.PDSURL)
		dids, err = pds.ListRepos(ctx, cfg.PDSURL)
		if err != nil {
			log.Fatalf("Failed to fetch accounts from PDS: %v", err)
		}
	}
	log.Printf("Found %d accounts to check for votes", len(dids))

	totalEntries := 0
	for _, did := range dids {
		client, err := pds.NewReadOnly(cfg.PDSURL, did)
		if err != nil {
			log.Printf("Warning: skipping %s: %v", did, err)
			continue
		}

		result, err := reindexVoter(ctx, voteService, mirror, client, did)
		if err != nil {
			log.Printf("Warning: %s: %v", did, err)
			continue
		}

		if result.current > 0 || result.previous > 0 {
			log.Printf("Indexed %d entries for %s (previously %d, %d dropped)",
				result.current, did, result.previous, result.dropped)
		}
		totalEntries += result.current
	}

	log.Printf("Reindexed %d vote index entries from %s", totalEntries, cfg.PDSURL)
}

type reindexResult struct {
	previous int
	current  int
	dropped  int // keys in the stored snapshot that the repo no longer has
}

// reindexVoter replaces the voter's stored snapshot with a fresh scan of their repo.
func reindexVoter(ctx context.Context, svc votes.Service, mirror votes.Repository, store votes.RecordStore, did string) (reindexResult, error) {
	previous, err := mirror.ListByVoter(ctx, did)
	if err != nil {
		return reindexResult{}, fmt.Errorf("failed to load stored index: %w", err)
	}

	index, err := svc.GetUserVotes(ctx, store)
	if err != nil {
		return reindexResult{}, fmt.Errorf("failed to fetch votes: %w", err)
	}

	if err := mirror.ReplaceForVoter(ctx, did, index); err != nil {
		return reindexResult{}, fmt.Errorf("failed to index votes: %w", err)
	}

	result := reindexResult{previous: len(previous), current: len(index)}
	for key := range previous {
		if _, ok := index[key]; !ok {
			result.dropped++
		}
	}
	return result, nil
}
