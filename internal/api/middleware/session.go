package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"Atlas/internal/api/handlers"
	"Atlas/internal/atproto/pds"
)

// Context keys for storing user information
type contextKey string

const (
	UserDIDKey   contextKey = "user_did"
	PDSClientKey contextKey = "pds_client"
)

const (
	sessionName = "atlas_session"

	sessionKeyDID     = "did"
	sessionKeyHost    = "host"
	sessionKeyAccess  = "access_jwt"
	sessionKeyRefresh = "refresh_jwt"

	sessionMaxAge = 7 * 24 * 60 * 60

	// MinCookieSecretLength is the shortest secret accepted for signing session cookies.
	MinCookieSecretLength = 32

	// tokenSkew tolerates small clock drift between us and the PDS.
	tokenSkew = 30 * time.Second
)

// ClientFactory turns a stored session into a PDS client.
type ClientFactory func(host, did, accessToken string) (pds.Client, error)

// Refresher renews an expired PDS session from its refresh token.
type Refresher func(ctx context.Context, host, refreshJwt string) (*pds.Session, error)

// SessionAuth keeps the PDS session in a signed cookie and exposes it to handlers
// as a per-request pds.Client. Expired access tokens are renewed with the stored
// refresh token and the cookie is rewritten.
type SessionAuth struct {
	store     sessions.Store
	newClient ClientFactory
	refresh   Refresher
	now       func() time.Time
}

// NewCookieStore creates the signed cookie store holding login sessions.
func NewCookieStore(secret string, secure bool) (*sessions.CookieStore, error) {
	if len(secret) < MinCookieSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinCookieSecretLength)
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// NewSessionAuth creates session middleware. A nil factory uses pds.NewFromAccessToken.
func NewSessionAuth(store sessions.Store, newClient ClientFactory) *SessionAuth {
	if newClient == nil {
		newClient = pds.NewFromAccessToken
	}
	return &SessionAuth{
		store:     store,
		newClient: newClient,
		refresh:   pds.RefreshSession,
		now:       time.Now,
	}
}

// Save stores a freshly created PDS session in the response cookie.
func (a *SessionAuth) Save(w http.ResponseWriter, r *http.Request, s *pds.Session) error {
	session, _ := a.store.Get(r, sessionName)
	session.Values[sessionKeyDID] = s.DID
	session.Values[sessionKeyHost] = s.Host
	session.Values[sessionKeyAccess] = s.AccessJwt
	session.Values[sessionKeyRefresh] = s.RefreshJwt
	session.Options.MaxAge = sessionMaxAge
	return session.Save(r, w)
}

// Clear expires the session cookie.
func (a *SessionAuth) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := a.store.Get(r, sessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// RequireSession rejects requests without a live session with 401.
// On success the user DID and a pds.Client are injected into the context.
func (a *SessionAuth) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.load(w, r)
		if err != nil {
			log.Printf("[AUTH_FAILURE] ip=%s method=%s path=%s error=%v",
				r.RemoteAddr, r.Method, r.URL.Path, err)
			handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Login required")
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalSession loads the session if there is one, but doesn't require it
func (a *SessionAuth) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.load(w, r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *SessionAuth) load(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	session, err := a.store.Get(r, sessionName)
	if err != nil {
		return nil, fmt.Errorf("decode session cookie: %w", err)
	}

	did, _ := session.Values[sessionKeyDID].(string)
	host, _ := session.Values[sessionKeyHost].(string)
	accessJwt, _ := session.Values[sessionKeyAccess].(string)
	refreshJwt, _ := session.Values[sessionKeyRefresh].(string)
	if did == "" || host == "" || accessJwt == "" {
		return nil, fmt.Errorf("no session")
	}

	expired, err := checkAccessToken(accessJwt, did, a.now())
	if err != nil {
		return nil, err
	}
	if expired {
		accessJwt, err = a.renew(w, r, did, host, refreshJwt)
		if err != nil {
			return nil, err
		}
	}

	client, err := a.newClient(host, did, accessJwt)
	if err != nil {
		return nil, fmt.Errorf("build pds client: %w", err)
	}

	ctx := context.WithValue(r.Context(), UserDIDKey, did)
	ctx = context.WithValue(ctx, PDSClientKey, client)
	return ctx, nil
}

// renew trades the refresh token for a new session, writes it to the cookie and
// returns the new access token.
func (a *SessionAuth) renew(w http.ResponseWriter, r *http.Request, did, host, refreshJwt string) (string, error) {
	if refreshJwt == "" {
		return "", fmt.Errorf("access token expired and no refresh token stored")
	}

	renewed, err := a.refresh(r.Context(), host, refreshJwt)
	if err != nil {
		return "", fmt.Errorf("refresh session: %w", err)
	}
	if renewed.DID != did {
		return "", fmt.Errorf("refreshed session DID %q does not match session DID %q", renewed.DID, did)
	}
	renewed.Host = host

	if err := a.Save(w, r, renewed); err != nil {
		return "", fmt.Errorf("store refreshed session: %w", err)
	}

	log.Printf("[AUTH] refreshed PDS session did=%s", did)
	return renewed.AccessJwt, nil
}

// checkAccessToken reads the PDS access JWT without verifying its signature
// (only the PDS holds the key). Tokens issued to someone else or otherwise invalid
// are rejected; an expired token is reported so the caller can refresh it.
func checkAccessToken(accessJwt, did string, now time.Time) (expired bool, err error) {
	token, err := jwt.Parse([]byte(accessJwt),
		jwt.WithVerify(false),
		jwt.WithValidate(false),
	)
	if err != nil {
		return false, fmt.Errorf("access token rejected: %w", err)
	}
	if token.Subject() != did {
		return false, fmt.Errorf("access token subject %q does not match session DID %q", token.Subject(), did)
	}

	if exp := token.Expiration(); !exp.IsZero() && now.After(exp.Add(tokenSkew)) {
		return true, nil
	}

	err = jwt.Validate(token,
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithAcceptableSkew(tokenSkew),
	)
	if err != nil {
		return false, fmt.Errorf("access token rejected: %w", err)
	}
	return false, nil
}

// GetUserDID extracts the user's DID from the request context
// Returns empty string if not authenticated
func GetUserDID(r *http.Request) string {
	did, _ := r.Context().Value(UserDIDKey).(string)
	return did
}

// GetPDSClient returns the per-request PDS client, or nil if not authenticated
func GetPDSClient(r *http.Request) pds.Client {
	client, _ := r.Context().Value(PDSClientKey).(pds.Client)
	return client
}

// SetTestSession injects an authenticated user for testing purposes
// This function should ONLY be used in tests to mock authenticated users
func SetTestSession(ctx context.Context, did string, client pds.Client) context.Context {
	ctx = context.WithValue(ctx, UserDIDKey, did)
	return context.WithValue(ctx, PDSClientKey, client)
}
