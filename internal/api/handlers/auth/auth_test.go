package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Atlas/internal/api/handlers"
	"Atlas/internal/api/middleware"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testDID      = "did:plc:alice"
	testHandle   = "alice.test"
	testPassword = "app-pass-word"
)

func accessJwt(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().Subject(sub).IssuedAt(time.Now()).Expiration(exp).Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("pds-signing-key")))
	require.NoError(t, err)
	return string(signed)
}

// fakePDS emulates com.atproto.server.createSession
func fakePDS(t *testing.T, status int) *httptest.Server {
	t.Helper()
	token := accessJwt(t, testDID, time.Now().Add(time.Hour))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/xrpc/com.atproto.server.createSession", r.URL.Path)

		var in struct {
			Identifier string `json:"identifier"`
			Password   string `json:"password"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		w.Header().Set("Content-Type", "application/json")
		code := status
		if code == http.StatusOK && in.Password != testPassword {
			code = http.StatusUnauthorized
		}
		if code != http.StatusOK {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"error":"AuthenticationRequired","message":"Invalid identifier or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"did":        testDID,
			"handle":     in.Identifier,
			"accessJwt":  token,
			"refreshJwt": "refresh",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newSessionAuth(t *testing.T) *middleware.SessionAuth {
	t.Helper()
	store, err := middleware.NewCookieStore(testSecret, false)
	require.NoError(t, err)
	return middleware.NewSessionAuth(store, nil)
}

func login(t *testing.T, handler *LoginHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/xrpc/pics.atmo.atlas.login", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	handler.HandleLogin(w, req)
	return w
}

func TestLoginHandler_SetsUsableSession(t *testing.T) {
	pdsServer := fakePDS(t, http.StatusOK)
	sessions := newSessionAuth(t)
	handler := NewLoginHandler(sessions, pdsServer.URL)

	w := login(t, handler, `{"identifier":"`+testHandle+`","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out LoginOutput
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.Equal(t, LoginOutput{DID: testDID, Handle: testHandle}, out)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "login must set the session cookie")

	// The cookie must be accepted by RequireSession and yield a client for the PDS
	var gotDID, gotHost string
	protected := sessions.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDID = middleware.GetUserDID(r)
		if client := middleware.GetPDSClient(r); client != nil {
			gotHost = client.HostURL()
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/xrpc/pics.atmo.atlas.getUserVotes", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	protected.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, testDID, gotDID)
	assert.Equal(t, pdsServer.URL, gotHost)
}

func TestLoginHandler_BadPassword(t *testing.T) {
	pdsServer := fakePDS(t, http.StatusOK)
	handler := NewLoginHandler(newSessionAuth(t), pdsServer.URL)

	w := login(t, handler, `{"identifier":"`+testHandle+`","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AuthRequired")
	assert.Empty(t, w.Result().Cookies())
}

func TestLoginHandler_PDSDown(t *testing.T) {
	pdsServer := fakePDS(t, http.StatusServiceUnavailable)
	handler := NewLoginHandler(newSessionAuth(t), pdsServer.URL)

	w := login(t, handler, `{"identifier":"`+testHandle+`","password":"`+testPassword+`"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "UpstreamError")
}

func TestLoginHandler_Validation(t *testing.T) {
	handler := NewLoginHandler(newSessionAuth(t), "http://unused.invalid")

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{`},
		{name: "missing identifier", body: `{"password":"x"}`},
		{name: "missing password", body: `{"identifier":"alice.test"}`},
		{name: "oversized body", body: `{"identifier":"alice.test","password":"` + strings.Repeat("x", handlers.MaxRequestBodyBytes) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := login(t, handler, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "InvalidRequest")
		})
	}
}

func TestLogoutHandler_ExpiresCookie(t *testing.T) {
	handler := NewLogoutHandler(newSessionAuth(t))

	req := httptest.NewRequest(http.MethodPost, "/xrpc/pics.atmo.atlas.logout", nil)
	w := httptest.NewRecorder()
	handler.HandleLogout(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0, "logout must expire the cookie")
}
