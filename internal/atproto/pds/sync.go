package pds

import (
	"context"
	"fmt"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	atclient "github.com/bluesky-social/indigo/atproto/client"
)

// ListRepos returns the DID of every repo hosted on a PDS, via com.atproto.sync.listRepos.
// Inactive repos are skipped.
func ListRepos(ctx context.Context, host string) ([]string, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}

	apiClient := atclient.NewAPIClient(host)

	var dids []string
	cursor := ""
	for {
		out, err := comatproto.SyncListRepos(ctx, apiClient, cursor, listPageSize)
		if err != nil {
			return nil, wrapAPIError(err, "listRepos")
		}

		for _, repo := range out.Repos {
			if repo.Active != nil && !*repo.Active {
				continue
			}
			dids = append(dids, repo.Did)
		}

		if out.Cursor == nil || *out.Cursor == "" || len(out.Repos) == 0 {
			return dids, nil
		}
		if *out.Cursor == cursor {
			return nil, fmt.Errorf("listRepos: cursor %q did not advance", cursor)
		}
		cursor = *out.Cursor
	}
}
