package vote

import (
	"net/http"

	"Atlas/internal/core/votes"
)

// SaveHandler handles saving and unsaving POIs
type SaveHandler struct {
	service votes.Service
}

// NewSaveHandler creates a new save handler
func NewSaveHandler(service votes.Service) *SaveHandler {
	return &SaveHandler{
		service: service,
	}
}

// HandleSavePOI saves a POI, which also records an up vote for it
// POST /xrpc/pics.atmo.atlas.savePoi
//
// Request body: { "subject": "at://..." }
// Response: {}
func (h *SaveHandler) HandleSavePOI(w http.ResponseWriter, r *http.Request) {
	subject, client, ok := decodeSubjectRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.SavePOI(r.Context(), client, subject); err != nil {
		handleServiceError(w, err)
		return
	}

	writeEmpty(w)
}

// HandleUnsavePOI removes the save. The up vote written by savePoi stays.
// POST /xrpc/pics.atmo.atlas.unsavePoi
//
// Request body: { "subject": "at://..." }
// Response: {}
func (h *SaveHandler) HandleUnsavePOI(w http.ResponseWriter, r *http.Request) {
	subject, client, ok := decodeSubjectRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.UnsavePOI(r.Context(), client, subject); err != nil {
		handleServiceError(w, err)
		return
	}

	writeEmpty(w)
}
