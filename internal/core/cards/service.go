package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"

	"Atlas/internal/atproto/utils"
	"Atlas/internal/core/votes"
)

const unknownPOIName = "Unknown POI"

type cardService struct {
	feed     FeedSource
	imageCDN string
	logger   *slog.Logger
}

// NewService creates a card service. imageCDN is the base of the image proxy,
// e.g. https://cdn.bsky.app/img/feed_fullsize/plain
func NewService(feed FeedSource, imageCDN string, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &cardService{
		feed:     feed,
		imageCDN: strings.TrimSuffix(imageCDN, "/"),
		logger:   logger,
	}
}

func (s *cardService) ListCards(ctx context.Context) ([]*Card, error) {
	entries, err := s.feed.FetchRecent(ctx)
	if err != nil {
		return nil, err
	}

	cards := make([]*Card, 0, len(entries))
	for _, entry := range entries {
		card, ok := s.toCard(entry)
		if !ok {
			continue
		}
		cards = append(cards, card)
	}

	s.logger.Debug("cards built from feed",
		"entries", len(entries),
		"cards", len(cards))

	return cards, nil
}

func (s *cardService) AnnotateViewer(cards []*Card, index votes.Index) {
	for _, card := range cards {
		state := &ViewerState{Saved: index.Saved(card.URI)}
		if vote := index.Vote(card.URI); vote != nil {
			state.Vote = string(vote.Vote)
		}
		card.Viewer = state
	}
}

// toCard drops entries without a usable image; a card is nothing without one.
func (s *cardService) toCard(entry RawEntry) (*Card, bool) {
	var record poiRecord
	if len(entry.Record) > 0 {
		if err := json.Unmarshal(entry.Record, &record); err != nil {
			s.logger.Debug("skipping feed entry with unreadable record",
				"uri", entry.URI,
				"error", err)
			return nil, false
		}
	}

	imageURL, ok := s.imageURL(record, entry.DID)
	if !ok {
		return nil, false
	}

	card := &Card{
		URI:      entry.URI,
		DID:      entry.DID,
		RKey:     entryRKey(entry),
		Name:     poiName(record),
		ImageURL: imageURL,
	}
	if record.Location != nil {
		card.Lat = coordinate(record.Location.Lat)
		card.Lon = coordinate(record.Location.Lon)
	}

	return card, true
}

// imageURL builds <cdn>/<did>/<cid>@webp from the first image blob.
func (s *cardService) imageURL(record poiRecord, did string) (string, bool) {
	if len(record.Images) == 0 || did == "" {
		return "", false
	}

	blob := record.Images[0].Image
	if blob == nil || blob.Type != "blob" {
		return "", false
	}

	c, err := cid.Decode(blob.Ref.Link)
	if err != nil {
		return "", false
	}

	return fmt.Sprintf("%s/%s/%s@webp", s.imageCDN, did, c.String()), true
}

func poiName(record poiRecord) string {
	if record.Name != "" {
		return record.Name
	}
	if record.Location != nil && record.Location.Name != "" {
		return record.Location.Name
	}
	return unknownPOIName
}

func entryRKey(entry RawEntry) string {
	if entry.RKey != "" {
		return entry.RKey
	}
	return utils.ExtractRKeyFromURI(entry.URI)
}

// coordinate accepts a JSON number or a decimal string (the atproto data model has no floats).
func coordinate(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return nil
	}
	return &f
}
