package cards

import "encoding/json"

// Card is a point of interest offered to the user for a vote.
type Card struct {
	Viewer   *ViewerState `json:"viewer,omitempty"`
	Lat      *float64     `json:"lat,omitempty"`
	Lon      *float64     `json:"lon,omitempty"`
	URI      string       `json:"uri"`
	DID      string       `json:"did"`
	RKey     string       `json:"rkey"`
	Name     string       `json:"name"`
	ImageURL string       `json:"imageUrl"`
}

// ViewerState is the authenticated viewer's existing reaction to a card.
type ViewerState struct {
	Vote  string `json:"vote,omitempty"` // "up", "down" or empty
	Saved bool   `json:"saved"`
}

// RawEntry is one record as returned by the recent-records feed.
type RawEntry struct {
	Record json.RawMessage `json:"record"`
	URI    string          `json:"uri"`
	DID    string          `json:"did"`
	RKey   string          `json:"rkey"`
}

// poiRecord is the subset of the main collection's record a card needs.
type poiRecord struct {
	Location *poiLocation `json:"location,omitempty"`
	Name     string       `json:"name"`
	Images   []poiImage   `json:"images,omitempty"`
}

type poiLocation struct {
	Name string          `json:"name"`
	Lat  json.RawMessage `json:"lat,omitempty"`
	Lon  json.RawMessage `json:"lon,omitempty"`
}

type poiImage struct {
	Image *blobRef `json:"image,omitempty"`
}

// blobRef is the lexicon blob shape: {"$type":"blob","ref":{"$link":<cid>},...}
type blobRef struct {
	Type     string `json:"$type"`
	MimeType string `json:"mimeType"`
	Ref      struct {
		Link string `json:"$link"`
	} `json:"ref"`
}
