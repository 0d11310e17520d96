package votes

import (
	"context"

	"Atlas/internal/atproto/pds"
	"Atlas/internal/atproto/utils"
)

// Service casts, removes and lists a user's vote and save records.
// Every operation talks to the store it is given; nothing is cached between calls.
type Service interface {
	// CastVote upserts the subject's vote record ("vote-<rkey>") with an up or down direction.
	// A later CastVote for the same subject overwrites it.
	CastVote(ctx context.Context, store RecordStore, subjectURI string, direction Kind) error

	// SavePOI upserts the subject's save record and an up vote concurrently.
	// Fails if either write fails; a write that succeeded is not rolled back.
	SavePOI(ctx context.Context, store RecordStore, subjectURI string) error

	// UnsavePOI deletes the save record. The vote record is untouched.
	UnsavePOI(ctx context.Context, store RecordStore, subjectURI string) error

	// RemoveVote deletes the vote record. The save record is untouched.
	RemoveVote(ctx context.Context, store RecordStore, subjectURI string) error

	// GetUserVotes lists the whole vote collection and folds it into a fresh Index.
	GetUserVotes(ctx context.Context, store RecordStore) (Index, error)
}

// RecordStore is the slice of the user's PDS repository the vote manager writes to.
// pds.Client satisfies it. Implementations must be safe for concurrent use,
// SavePOI issues two writes at once.
type RecordStore interface {
	PutRecord(ctx context.Context, collection string, rkey string, record any) (uri string, cid string, err error)
	DeleteRecord(ctx context.Context, collection string, rkey string) error
	ListAllRecords(ctx context.Context, collection string) ([]pds.RecordEntry, error)
}

// URIParser decomposes a subject AT-URI.
type URIParser interface {
	ParseURI(uri string) (*utils.ParsedURI, error)
}

// Repository persists snapshots of vote indexes (the AppView mirror).
// A snapshot is always replaced whole, never patched per write.
type Repository interface {
	// ReplaceForVoter atomically swaps the voter's stored index for the given one.
	ReplaceForVoter(ctx context.Context, voterDID string, index Index) error

	// ListByVoter returns the last stored snapshot, empty if none.
	ListByVoter(ctx context.Context, voterDID string) (Index, error)
}
