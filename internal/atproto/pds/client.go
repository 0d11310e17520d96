// Package pds provides an abstraction layer for authenticated interactions with AT Protocol PDSs.
// It wraps indigo's atclient.APIClient so the vote manager can write to and list a user's
// repository without knowing how the session was established.
package pds

import (
	"context"
	"errors"
	"fmt"

	atclient "github.com/bluesky-social/indigo/atproto/client"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// listPageSize is the largest page com.atproto.repo.listRecords accepts.
const listPageSize = 100

// Client provides authenticated access to a user's PDS repository.
type Client interface {
	// PutRecord creates or replaces the record at collection/rkey (upsert).
	// Returns the record URI and CID.
	PutRecord(ctx context.Context, collection string, rkey string, record any) (uri string, cid string, err error)

	// DeleteRecord deletes a record from the user's repository.
	// The reference PDS treats a missing record as a no-op.
	DeleteRecord(ctx context.Context, collection string, rkey string) error

	// ListRecords lists one page of records in a collection.
	ListRecords(ctx context.Context, collection string, limit int, cursor string) (*ListRecordsResponse, error)

	// ListAllRecords pages through the entire collection in repository order.
	ListAllRecords(ctx context.Context, collection string) ([]RecordEntry, error)

	// DID returns the authenticated user's DID.
	DID() string

	// HostURL returns the PDS host URL.
	HostURL() string
}

// ListRecordsResponse contains the result of a ListRecords call.
type ListRecordsResponse struct {
	Records []RecordEntry
	Cursor  string
}

// RecordEntry represents a single record from a list operation.
type RecordEntry struct {
	URI   string
	CID   string
	Value map[string]any
}

// client implements Client on top of indigo's APIClient.
// The same implementation serves Bearer (password/session) auth and any other
// atclient.AuthMethod the caller configures.
type client struct {
	apiClient *atclient.APIClient
	did       string
	host      string
}

var _ Client = (*client)(nil)

// wrapAPIError maps atclient errors onto the typed errors in this package.
func wrapAPIError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr *atclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 400:
			return fmt.Errorf("%s: %w: %s", operation, ErrBadRequest, apiErr.Message)
		case 401:
			return fmt.Errorf("%s: %w: %s", operation, ErrUnauthorized, apiErr.Message)
		case 403:
			return fmt.Errorf("%s: %w: %s", operation, ErrForbidden, apiErr.Message)
		case 404:
			return fmt.Errorf("%s: %w: %s", operation, ErrNotFound, apiErr.Message)
		case 409:
			return fmt.Errorf("%s: %w: %s", operation, ErrConflict, apiErr.Message)
		case 413:
			return fmt.Errorf("%s: %w: %s", operation, ErrPayloadTooLarge, apiErr.Message)
		case 429:
			return fmt.Errorf("%s: %w: %s", operation, ErrRateLimited, apiErr.Message)
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}

// DID returns the authenticated user's DID.
func (c *client) DID() string {
	return c.did
}

// HostURL returns the PDS host URL.
func (c *client) HostURL() string {
	return c.host
}

// PutRecord upserts a record per com.atproto.repo.putRecord.
func (c *client) PutRecord(ctx context.Context, collection string, rkey string, record any) (string, string, error) {
	payload := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"rkey":       rkey,
		"record":     record,
	}

	var result struct {
		URI string `json:"uri"`
		CID string `json:"cid"`
	}

	err := c.apiClient.Post(ctx, syntax.NSID("com.atproto.repo.putRecord"), payload, &result)
	if err != nil {
		return "", "", wrapAPIError(err, "putRecord")
	}

	return result.URI, result.CID, nil
}

// DeleteRecord deletes a record per com.atproto.repo.deleteRecord.
func (c *client) DeleteRecord(ctx context.Context, collection string, rkey string) error {
	payload := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"rkey":       rkey,
	}

	// deleteRecord returns an empty body (or a commit ref we don't need)
	if err := c.apiClient.Post(ctx, syntax.NSID("com.atproto.repo.deleteRecord"), payload, nil); err != nil {
		return wrapAPIError(err, "deleteRecord")
	}

	return nil
}

// ListRecords lists one page of records in a collection.
func (c *client) ListRecords(ctx context.Context, collection string, limit int, cursor string) (*ListRecordsResponse, error) {
	params := map[string]any{
		"repo":       c.did,
		"collection": collection,
		"limit":      limit,
	}

	if cursor != "" {
		params["cursor"] = cursor
	}

	var result struct {
		Cursor  string `json:"cursor"`
		Records []struct {
			URI   string         `json:"uri"`
			CID   string         `json:"cid"`
			Value map[string]any `json:"value"`
		} `json:"records"`
	}

	err := c.apiClient.Get(ctx, syntax.NSID("com.atproto.repo.listRecords"), params, &result)
	if err != nil {
		return nil, wrapAPIError(err, "listRecords")
	}

	response := &ListRecordsResponse{
		Cursor:  result.Cursor,
		Records: make([]RecordEntry, len(result.Records)),
	}

	for i, rec := range result.Records {
		response.Records[i] = RecordEntry{
			URI:   rec.URI,
			CID:   rec.CID,
			Value: rec.Value,
		}
	}

	return response, nil
}

// ListAllRecords follows listRecords cursors until the PDS reports no more pages.
// There is no page cap; a cursor that fails to advance is treated as a PDS bug.
func (c *client) ListAllRecords(ctx context.Context, collection string) ([]RecordEntry, error) {
	var all []RecordEntry
	cursor := ""

	for {
		page, err := c.ListRecords(ctx, collection, listPageSize, cursor)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Records...)

		if page.Cursor == "" || len(page.Records) == 0 {
			return all, nil
		}
		if page.Cursor == cursor {
			return nil, fmt.Errorf("listRecords: cursor %q did not advance", cursor)
		}
		cursor = page.Cursor
	}
}
