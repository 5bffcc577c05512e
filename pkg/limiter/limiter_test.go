package limiter

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityLimiter(t *testing.T) {
	unlimited := CommunityLimiter{}
	assert.True(t, unlimited.CanOpenSession(1000))

	l := CommunityLimiter{MaxSessions: 2}
	assert.True(t, l.CanOpenSession(1))
	assert.False(t, l.CanOpenSession(2))
	assert.Equal(t, 1, l.GetRemainingSessions(1))
	assert.Equal(t, 0, l.GetRemainingSessions(5))
}

func TestExternalLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		active := r.URL.Query().Get("active")
		switch r.URL.Path {
		case "/can/open/session":
			if active == "3" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusOK)
		case "/remain/sessions":
			w.Header().Set("X-Entity-Remain", "7")
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	host, err := url.Parse(srv.URL)
	require.NoError(t, err)
	l := NewExternalLimiter(host)

	assert.True(t, l.CanOpenSession(0))
	assert.False(t, l.CanOpenSession(3))
	assert.Equal(t, 7, l.GetRemainingSessions(0))
}
