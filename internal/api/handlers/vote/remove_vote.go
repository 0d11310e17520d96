package vote

import (
	"encoding/json"
	"net/http"

	"Atlas/internal/api/handlers"
	"Atlas/internal/api/middleware"
	"Atlas/internal/core/votes"
)

// SubjectInput is the request body of every procedure that only names a POI
type SubjectInput struct {
	Subject string `json:"subject" validate:"required,startswith=at://"`
}

// RemoveVoteHandler handles vote deletion
type RemoveVoteHandler struct {
	service votes.Service
}

// NewRemoveVoteHandler creates a new remove vote handler
func NewRemoveVoteHandler(service votes.Service) *RemoveVoteHandler {
	return &RemoveVoteHandler{
		service: service,
	}
}

// HandleRemoveVote deletes the viewer's up/down vote. A save is left in place.
// POST /xrpc/pics.atmo.atlas.removeVote
//
// Request body: { "subject": "at://..." }
// Response: {}
func (h *RemoveVoteHandler) HandleRemoveVote(w http.ResponseWriter, r *http.Request) {
	subject, client, ok := decodeSubjectRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveVote(r.Context(), client, subject); err != nil {
		handleServiceError(w, err)
		return
	}

	writeEmpty(w)
}

// decodeSubjectRequest parses a SubjectInput and fetches the session's PDS client.
// It writes the error response itself and reports ok=false on failure.
func decodeSubjectRequest(w http.ResponseWriter, r *http.Request) (string, votes.RecordStore, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, handlers.MaxRequestBodyBytes)

	var input SubjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return "", nil, false
	}

	if err := handlers.ValidateInput(input); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return "", nil, false
	}

	client := middleware.GetPDSClient(r)
	if client == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return "", nil, false
	}

	return input.Subject, client, true
}
