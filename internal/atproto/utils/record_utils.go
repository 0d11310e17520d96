package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// ParsedURI is an AT-URI decomposed into the parts the vote manager needs.
// Collection and RKey are empty when the URI only names a repo or collection.
type ParsedURI struct {
	Actor      string
	Collection string
	RKey       string
}

// ParseURI decomposes at://<actor>/<collection>/<rkey> using indigo's AT-URI grammar.
// Returns an error for anything that is not a syntactically valid AT-URI.
func ParseURI(uri string) (*ParsedURI, error) {
	aturi, err := syntax.ParseATURI(uri)
	if err != nil {
		return nil, fmt.Errorf("parse at-uri %q: %w", uri, err)
	}

	return &ParsedURI{
		Actor:      aturi.Authority().String(),
		Collection: aturi.Collection().String(),
		RKey:       aturi.RecordKey().String(),
	}, nil
}

// ATURIParser adapts ParseURI to interfaces that take a parser value.
type ATURIParser struct{}

// ParseURI implements votes.URIParser.
func (ATURIParser) ParseURI(uri string) (*ParsedURI, error) {
	return ParseURI(uri)
}

// ExtractRKeyFromURI extracts the record key from an AT-URI
// Format: at://did/collection/rkey -> rkey
func ExtractRKeyFromURI(uri string) string {
	parts := strings.Split(uri, "/")
	if len(parts) >= 5 {
		return parts[len(parts)-1]
	}
	return ""
}

// ParseCreatedAt parses an atProto createdAt datetime (RFC3339, usually with milliseconds).
// ok is false when the value is missing or not a valid datetime.
func ParseCreatedAt(createdAt string) (t time.Time, ok bool) {
	if createdAt == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
