package card

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atlas/internal/api/middleware"
	"Atlas/internal/atproto/pds"
	"Atlas/internal/core/cards"
	"Atlas/internal/core/votes"
)

const poiURI = "at://did:plc:author/pics.atmo.atlas.v0/3kpoi"

type stubClient struct {
	pds.Client
}

type mockCardService struct {
	err       error
	annotated votes.Index
}

func (m *mockCardService) ListCards(context.Context) ([]*cards.Card, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*cards.Card{{URI: poiURI, DID: "did:plc:author", RKey: "3kpoi", Name: "Lighthouse"}}, nil
}

func (m *mockCardService) AnnotateViewer(list []*cards.Card, index votes.Index) {
	m.annotated = index
	for _, c := range list {
		c.Viewer = &cards.ViewerState{Saved: index.Saved(c.URI)}
	}
}

// mockVoteService only answers GetUserVotes
type mockVoteService struct {
	votes.Service
	err   error
	index votes.Index
	calls int
}

func (m *mockVoteService) GetUserVotes(context.Context, votes.RecordStore) (votes.Index, error) {
	m.calls++
	return m.index, m.err
}

func serve(t *testing.T, h *GetCardsHandler, authed bool) (*httptest.ResponseRecorder, GetCardsOutput) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/xrpc/pics.atmo.atlas.getCards", nil)
	if authed {
		req = req.WithContext(middleware.SetTestSession(req.Context(), "did:plc:viewer", &stubClient{}))
	}
	w := httptest.NewRecorder()
	h.HandleGetCards(w, req)

	var out GetCardsOutput
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestGetCards_Anonymous(t *testing.T) {
	cardService := &mockCardService{}
	voteService := &mockVoteService{}

	w, out := serve(t, NewGetCardsHandler(cardService, voteService), false)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out.Cards, 1)
	assert.Nil(t, out.Cards[0].Viewer)
	assert.Zero(t, voteService.calls, "anonymous viewers have no vote index")
}

func TestGetCards_AnnotatesViewer(t *testing.T) {
	index := votes.Index{
		"save:" + poiURI: {Subject: poiURI, Vote: votes.KindSave},
	}
	cardService := &mockCardService{}
	voteService := &mockVoteService{index: index}

	w, out := serve(t, NewGetCardsHandler(cardService, voteService), true)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out.Cards, 1)
	require.NotNil(t, out.Cards[0].Viewer)
	assert.True(t, out.Cards[0].Viewer.Saved)
	assert.Equal(t, index, cardService.annotated)
}

func TestGetCards_VoteListingFailureStillServesCards(t *testing.T) {
	cardService := &mockCardService{}
	voteService := &mockVoteService{err: &votes.RemoteListError{Collection: "votes.atmo.atlas.v0", Err: errors.New("boom")}}

	w, out := serve(t, NewGetCardsHandler(cardService, voteService), true)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out.Cards, 1)
	assert.Nil(t, out.Cards[0].Viewer)
}

func TestGetCards_FeedDown(t *testing.T) {
	cardService := &mockCardService{err: cards.ErrFeedUnavailable}

	w, _ := serve(t, NewGetCardsHandler(cardService, &mockVoteService{}), false)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "UpstreamError")
}
