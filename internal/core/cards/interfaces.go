package cards

import (
	"context"

	"Atlas/internal/core/votes"
)

// Service builds vote cards from recently published points of interest.
type Service interface {
	// ListCards fetches recent records and maps the ones with an image to cards.
	ListCards(ctx context.Context) ([]*Card, error)

	// AnnotateViewer attaches the viewer's vote/save state from an index.
	// The index is only read.
	AnnotateViewer(cards []*Card, index votes.Index)
}

// FeedSource supplies recent records of the main collection.
type FeedSource interface {
	FetchRecent(ctx context.Context) ([]RawEntry, error)
}
