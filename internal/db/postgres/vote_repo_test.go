package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atlas/internal/core/votes"
	"Atlas/internal/db/migrations"
)

// setupTestDB connects to TEST_DATABASE_URL and runs migrations.
func setupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.Ping(), "Failed to ping test database")
	require.NoError(t, migrations.Up(db), "Failed to run migrations")

	return db
}

func cleanupVoteIndex(t *testing.T, db *sql.DB) {
	_, err := db.Exec("DELETE FROM vote_index WHERE voter_did LIKE 'did:plc:test%'")
	require.NoError(t, err, "Failed to cleanup vote index")
}

func TestVoteRepo_ReplaceAndList(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()
	defer cleanupVoteIndex(t, db)

	repo := NewVoteRepository(db)
	ctx := context.Background()
	voter := "did:plc:testvoter1"

	first := votes.Index{
		"vote:at://did:plc:a/pics.atmo.atlas.v0/1": {Type: "votes.atmo.atlas.v0", Subject: "at://did:plc:a/pics.atmo.atlas.v0/1", Vote: votes.KindUp, CreatedAt: "2025-06-01T12:00:00.000Z"},
		"save:at://did:plc:a/pics.atmo.atlas.v0/1": {Type: "votes.atmo.atlas.v0", Subject: "at://did:plc:a/pics.atmo.atlas.v0/1", Vote: votes.KindSave, CreatedAt: "2025-06-01T12:00:00.000Z"},
	}
	require.NoError(t, repo.ReplaceForVoter(ctx, voter, first))

	got, err := repo.ListByVoter(ctx, voter)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := votes.Index{
		"vote:at://did:plc:a/pics.atmo.atlas.v0/2": {Type: "votes.atmo.atlas.v0", Subject: "at://did:plc:a/pics.atmo.atlas.v0/2", Vote: votes.KindDown, CreatedAt: "2025-06-02T08:30:00.250Z"},
	}
	require.NoError(t, repo.ReplaceForVoter(ctx, voter, second))

	got, err = repo.ListByVoter(ctx, voter)
	require.NoError(t, err)
	assert.Equal(t, second, got, "replace drops rows missing from the new snapshot")
}

func TestVoteRepo_ReplaceWithEmpty(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()
	defer cleanupVoteIndex(t, db)

	repo := NewVoteRepository(db)
	ctx := context.Background()
	voter := "did:plc:testvoter2"

	require.NoError(t, repo.ReplaceForVoter(ctx, voter, votes.Index{
		"vote:S": {Type: "t", Subject: "S", Vote: votes.KindUp, CreatedAt: "2025-06-01T12:00:00.000Z"},
	}))
	require.NoError(t, repo.ReplaceForVoter(ctx, voter, votes.Index{}))

	got, err := repo.ListByVoter(ctx, voter)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVoteRepo_InvalidVoterDID(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	repo := NewVoteRepository(db)
	err := repo.ReplaceForVoter(context.Background(), "not-a-did", votes.Index{
		"vote:S": {Type: "t", Subject: "S", Vote: votes.KindUp, CreatedAt: "2025-06-01T12:00:00.000Z"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid voter DID format")
}

func TestVoteRepo_MissingCreatedAtStoredAsNull(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()
	defer cleanupVoteIndex(t, db)

	repo := NewVoteRepository(db)
	ctx := context.Background()
	voter := "did:plc:testvoter3"

	index := votes.Index{
		"vote:at://did:plc:a/pics.atmo.atlas.v0/1": {Type: "votes.atmo.atlas.v0", Subject: "at://did:plc:a/pics.atmo.atlas.v0/1", Vote: votes.KindUp, CreatedAt: ""},
		"save:at://did:plc:a/pics.atmo.atlas.v0/1": {Type: "votes.atmo.atlas.v0", Subject: "at://did:plc:a/pics.atmo.atlas.v0/1", Vote: votes.KindSave, CreatedAt: "yesterday"},
	}
	require.NoError(t, repo.ReplaceForVoter(ctx, voter, index))

	var nulls int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM vote_index WHERE voter_did = $1 AND created_at IS NULL", voter,
	).Scan(&nulls))
	assert.Equal(t, 2, nulls, "no timestamp is invented for records without one")

	got, err := repo.ListByVoter(ctx, voter)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for key, record := range got {
		assert.Empty(t, record.CreatedAt, key)
	}
}

func TestNormalizeCreatedAt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"millisecond UTC", "2025-06-01T12:00:00.000Z", "2025-06-01T12:00:00Z"},
		{"offset converted to UTC", "2025-06-01T14:00:00.5+02:00", "2025-06-01T12:00:00.5Z"},
		{"empty", "", ""},
		{"garbage", "yesterday", ""},
		{"missing zone", "2025-06-01T12:00:00", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeCreatedAt(tt.in))
		})
	}
}

func TestCreatedAtSurvivesMirrorRoundTrip(t *testing.T) {
	// what the vote service writes must read back byte-for-byte from the mirror
	written := time.Date(2025, 6, 1, 12, 0, 0, 250_000_000, time.UTC).Format(votes.CreatedAtLayout)

	stored, err := time.Parse(time.RFC3339Nano, normalizeCreatedAt(written))
	require.NoError(t, err)
	assert.Equal(t, written, stored.UTC().Format(votes.CreatedAtLayout))
	assert.Equal(t, "2025-06-01T12:00:00.250Z", written)
}
