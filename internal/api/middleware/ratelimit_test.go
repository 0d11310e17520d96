package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_PerDID(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(did string) int {
		req := httptest.NewRequest(http.MethodPost, "/xrpc/pics.atmo.atlas.castVote", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if did != "" {
			req = req.WithContext(SetTestSession(req.Context(), did, nil))
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve("did:plc:alice"))
	assert.Equal(t, http.StatusOK, serve("did:plc:alice"))
	assert.Equal(t, http.StatusTooManyRequests, serve("did:plc:alice"))

	// Same IP, different account: separate budget
	assert.Equal(t, http.StatusOK, serve("did:plc:bob"))

	// Anonymous requests fall back to the client IP
	assert.Equal(t, http.StatusOK, serve(""))

	now = now.Add(time.Hour + time.Second)
	assert.Equal(t, http.StatusOK, serve("did:plc:alice"), "window reset")
}
