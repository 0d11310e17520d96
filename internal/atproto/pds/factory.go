package pds

import (
	"context"
	"fmt"
	"net/http"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	atclient "github.com/bluesky-social/indigo/atproto/client"
	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Session is the result of com.atproto.server.createSession or refreshSession.
// The access token authorizes record writes; the refresh token renews it.
type Session struct {
	DID        string
	Handle     string
	Host       string
	AccessJwt  string
	RefreshJwt string
}

// CreateSession logs in with an identifier (handle or DID) and an app password.
// The returned session can be persisted and turned back into a Client with NewFromAccessToken.
func CreateSession(ctx context.Context, host, identifier, password string) (*Session, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if identifier == "" {
		return nil, fmt.Errorf("identifier is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	apiClient := atclient.NewAPIClient(host)
	out, err := comatproto.ServerCreateSession(ctx, apiClient, &comatproto.ServerCreateSession_Input{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, wrapAPIError(err, "createSession")
	}

	return &Session{
		DID:        out.Did,
		Handle:     out.Handle,
		Host:       host,
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
	}, nil
}

// RefreshSession exchanges a refresh token for a new access/refresh pair.
// Refresh tokens are single-use: the old one is revoked on success.
func RefreshSession(ctx context.Context, host, refreshJwt string) (*Session, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if refreshJwt == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	// The refresh endpoint authenticates with the refresh token, not the access token
	apiClient := atclient.NewAPIClient(host)
	apiClient.Auth = &bearerAuth{token: refreshJwt}

	out, err := comatproto.ServerRefreshSession(ctx, apiClient)
	if err != nil {
		return nil, wrapAPIError(err, "refreshSession")
	}
	if out.AccessJwt == "" || out.RefreshJwt == "" {
		return nil, fmt.Errorf("refresh response missing tokens")
	}

	return &Session{
		DID:        out.Did,
		Handle:     out.Handle,
		Host:       host,
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
	}, nil
}

// NewFromPasswordAuth creates a PDS client using password authentication.
// indigo's LoginWithPasswordHost handles createSession and token refresh.
//
// Primarily used by the CLI and tests against a local PDS.
func NewFromPasswordAuth(ctx context.Context, host, handle, password string) (Client, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if handle == "" {
		return nil, fmt.Errorf("handle is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	apiClient, err := atclient.LoginWithPasswordHost(ctx, host, handle, password, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to login with password: %w", err)
	}

	did := ""
	if apiClient.AccountDID != nil {
		did = apiClient.AccountDID.String()
	}

	return &client{
		apiClient: apiClient,
		did:       did,
		host:      host,
	}, nil
}

// NewFromAccessToken creates a PDS client from an existing access token.
//
// WARNING: Bearer auth only. OAuth access tokens need DPoP proofs and will be rejected.
func NewFromAccessToken(host, did, accessToken string) (Client, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if did == "" {
		return nil, fmt.Errorf("did is required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("accessToken is required")
	}

	apiClient := atclient.NewAPIClient(host)
	apiClient.Auth = &bearerAuth{token: accessToken}

	return &client{
		apiClient: apiClient,
		did:       did,
		host:      host,
	}, nil
}

// NewReadOnly creates an unauthenticated PDS client for a repo.
// listRecords is public, so listing works; writes are rejected by the PDS.
func NewReadOnly(host, did string) (Client, error) {
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if _, err := syntax.ParseDID(did); err != nil {
		return nil, fmt.Errorf("invalid did %q: %w", did, err)
	}

	return &client{
		apiClient: atclient.NewAPIClient(host),
		did:       did,
		host:      host,
	}, nil
}

// bearerAuth implements atclient.AuthMethod for simple Bearer token auth.
type bearerAuth struct {
	token string
}

var _ atclient.AuthMethod = (*bearerAuth)(nil)

// DoWithAuth adds the Bearer token to the request and executes it.
func (b *bearerAuth) DoWithAuth(c *http.Client, req *http.Request, _ syntax.NSID) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return c.Do(req)
}
