package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"Atlas/internal/atproto/utils"
	"Atlas/internal/core/votes"
)

type postgresVoteRepo struct {
	db *sql.DB
}

// NewVoteRepository creates a new PostgreSQL vote index mirror
func NewVoteRepository(db *sql.DB) votes.Repository {
	return &postgresVoteRepo{db: db}
}

// ReplaceForVoter deletes the voter's rows and bulk-inserts the new index in one transaction.
// Readers see either the old snapshot or the new one.
func (r *postgresVoteRepo) ReplaceForVoter(ctx context.Context, voterDID string, index votes.Index) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vote_index WHERE voter_did = $1`, voterDID); err != nil {
		return fmt.Errorf("failed to clear vote index: %w", err)
	}

	if len(index) > 0 {
		keys := make([]string, 0, len(index))
		subjects := make([]string, 0, len(index))
		types := make([]string, 0, len(index))
		kinds := make([]string, 0, len(index))
		createdAts := make([]string, 0, len(index))

		for key, record := range index {
			keys = append(keys, key)
			subjects = append(subjects, record.Subject)
			types = append(types, record.Type)
			kinds = append(kinds, string(record.Vote))
			createdAts = append(createdAts, normalizeCreatedAt(record.CreatedAt))
		}

		query := `
			INSERT INTO vote_index (
				voter_did, index_key, subject_uri, record_type, vote, created_at, indexed_at
			)
			SELECT $1, k, s, t, v, NULLIF(c, '')::timestamptz, NOW()
			FROM unnest($2::text[], $3::text[], $4::text[], $5::text[], $6::text[]) AS u(k, s, t, v, c)
		`
		_, err := tx.ExecContext(ctx, query, voterDID,
			pq.Array(keys), pq.Array(subjects), pq.Array(types), pq.Array(kinds), pq.Array(createdAts))
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Constraint == "chk_voter_did_format" {
				return fmt.Errorf("invalid voter DID format: %s", voterDID)
			}
			return fmt.Errorf("failed to insert vote index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vote index: %w", err)
	}

	return nil
}

// ListByVoter loads the voter's stored snapshot.
func (r *postgresVoteRepo) ListByVoter(ctx context.Context, voterDID string) (votes.Index, error) {
	query := `
		SELECT index_key, subject_uri, record_type, vote, created_at
		FROM vote_index
		WHERE voter_did = $1
	`

	rows, err := r.db.QueryContext(ctx, query, voterDID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vote index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	index := make(votes.Index)
	for rows.Next() {
		var (
			key       string
			record    votes.VoteRecord
			kind      string
			createdAt sql.NullTime
		)
		if err := rows.Scan(&key, &record.Subject, &record.Type, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote index row: %w", err)
		}
		record.Vote = votes.Kind(kind)
		if createdAt.Valid {
			record.CreatedAt = createdAt.Time.UTC().Format(votes.CreatedAtLayout)
		}
		index[key] = &record
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vote index: %w", err)
	}

	return index, nil
}

// normalizeCreatedAt returns the record's createdAt as RFC3339, or "" (stored as NULL)
// when the record carries no parseable timestamp.
func normalizeCreatedAt(createdAt string) string {
	t, ok := utils.ParseCreatedAt(createdAt)
	if !ok {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
