package votes

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"Atlas/internal/atproto/utils"
)

// CreatedAtLayout is RFC3339 with millisecond precision, the form atproto clients emit.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// voteService implements the Service interface for vote operations
type voteService struct {
	collection string
	parser     URIParser
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a vote service writing to the given vote collection.
// The collection doubles as the records' $type and is resolved from configuration at startup.
// A nil parser uses indigo's AT-URI grammar.
func NewService(collection string, parser URIParser, logger *slog.Logger) Service {
	if parser == nil {
		parser = utils.ATURIParser{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &voteService{
		collection: collection,
		parser:     parser,
		logger:     logger,
		now:        time.Now,
	}
}

// CastVote writes an up or down vote for the subject at "vote-<rkey>".
func (s *voteService) CastVote(ctx context.Context, store RecordStore, subjectURI string, direction Kind) error {
	if !direction.IsDirection() {
		return ErrInvalidDirection
	}

	subjectRKey, err := DeriveSubjectKey(s.parser, subjectURI)
	if err != nil {
		return err
	}

	return s.putVote(ctx, store, VoteRKey(subjectRKey), subjectURI, direction)
}

// SavePOI writes the save record and an up vote without waiting on either before starting the other.
// The two records are independent in the repo, so a half-applied save is left as is.
func (s *voteService) SavePOI(ctx context.Context, store RecordStore, subjectURI string) error {
	subjectRKey, err := DeriveSubjectKey(s.parser, subjectURI)
	if err != nil {
		return err
	}

	// Plain Group, not WithContext: a failed leg must not cancel the other write mid-flight.
	var g errgroup.Group
	g.Go(func() error {
		return s.putVote(ctx, store, SaveRKey(subjectRKey), subjectURI, KindSave)
	})
	g.Go(func() error {
		return s.putVote(ctx, store, VoteRKey(subjectRKey), subjectURI, KindUp)
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("save partially applied or failed",
			"subject", subjectURI,
			"error", err)
		return err
	}

	return nil
}

// UnsavePOI deletes "save-<rkey>".
func (s *voteService) UnsavePOI(ctx context.Context, store RecordStore, subjectURI string) error {
	subjectRKey, err := DeriveSubjectKey(s.parser, subjectURI)
	if err != nil {
		return err
	}

	return s.deleteVote(ctx, store, SaveRKey(subjectRKey), subjectURI)
}

// RemoveVote deletes "vote-<rkey>".
func (s *voteService) RemoveVote(ctx context.Context, store RecordStore, subjectURI string) error {
	subjectRKey, err := DeriveSubjectKey(s.parser, subjectURI)
	if err != nil {
		return err
	}

	return s.deleteVote(ctx, store, VoteRKey(subjectRKey), subjectURI)
}

// GetUserVotes lists every record in the vote collection and folds it into a new Index.
// Records are applied in listing order, so a later record for the same key wins.
func (s *voteService) GetUserVotes(ctx context.Context, store RecordStore) (Index, error) {
	records, err := store.ListAllRecords(ctx, s.collection)
	if err != nil {
		s.logger.Error("failed to list vote records",
			"error", err,
			"collection", s.collection)
		return nil, &RemoteListError{Collection: s.collection, Err: err}
	}

	index := make(Index, len(records))
	for _, rec := range records {
		record, ok := recordFromValue(rec.Value)
		if !ok {
			s.logger.Warn("skipping vote record without subject",
				"uri", rec.URI)
			continue
		}
		index[IndexKey(record.Vote, record.Subject)] = record
	}

	s.logger.Debug("vote index rebuilt",
		"collection", s.collection,
		"records", len(records),
		"entries", len(index))

	return index, nil
}

func (s *voteService) putVote(ctx context.Context, store RecordStore, rkey, subjectURI string, kind Kind) error {
	record := VoteRecord{
		Type:      s.collection,
		Subject:   subjectURI,
		Vote:      kind,
		CreatedAt: s.now().UTC().Format(CreatedAtLayout),
	}

	uri, cid, err := store.PutRecord(ctx, s.collection, rkey, record)
	if err != nil {
		s.logger.Error("failed to write vote record",
			"error", err,
			"rkey", rkey,
			"subject", subjectURI,
			"vote", kind)
		return &RemoteWriteError{Op: "put", Collection: s.collection, RKey: rkey, Err: err}
	}

	s.logger.Info("vote record written",
		"subject", subjectURI,
		"vote", kind,
		"uri", uri,
		"cid", cid)

	return nil
}

func (s *voteService) deleteVote(ctx context.Context, store RecordStore, rkey, subjectURI string) error {
	if err := store.DeleteRecord(ctx, s.collection, rkey); err != nil {
		s.logger.Error("failed to delete vote record",
			"error", err,
			"rkey", rkey,
			"subject", subjectURI)
		return &RemoteWriteError{Op: "delete", Collection: s.collection, RKey: rkey, Err: err}
	}

	s.logger.Info("vote record deleted",
		"subject", subjectURI,
		"rkey", rkey)

	return nil
}

// recordFromValue reads a listed record value. Unknown vote kinds are kept and
// indexed under "vote:", matching any other reader of the collection.
func recordFromValue(value map[string]any) (*VoteRecord, bool) {
	subject, _ := value["subject"].(string)
	if subject == "" {
		return nil, false
	}

	typ, _ := value["$type"].(string)
	vote, _ := value["vote"].(string)
	createdAt, _ := value["createdAt"].(string)

	return &VoteRecord{
		Type:      typ,
		Subject:   subject,
		Vote:      Kind(vote),
		CreatedAt: createdAt,
	}, true
}
