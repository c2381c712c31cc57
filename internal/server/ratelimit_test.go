package server

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"hirescore/internal/config"
	hirescoreErrors "hirescore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstSize: 2, ByIP: true},
	}, stubExtractor{})

	get := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/rubric", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, get("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, get("10.0.0.1:1234").Code)
	limited := get("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	retryAfter, err := strconv.Atoi(limited.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 60, retryAfter, 1, "one request per minute refills in a minute")
	assert.Equal(t, http.StatusOK, get("10.0.0.2:1234").Code, "other clients keep their own budget")

	// unprotected endpoints are never limited
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		byAPIKey  bool
		byIP      bool
		wantKey   string
		wantLimit string
	}{
		{"api key preferred", map[string]string{"X-API-Key": "k1"}, true, true, "api:k1", "api_key"},
		{"falls back to ip", nil, true, true, "ip:192.0.2.1", "ip"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, false, true, "ip:203.0.113.7", "ip"},
		{"disabled", map[string]string{"X-API-Key": "k1"}, false, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:5000"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			key, limitType := getRateLimitKey(req, tt.byAPIKey, tt.byIP)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantLimit, limitType)
		})
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, 0, hirescoreErrors.Discard())
	defer rl.Close()

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	ok, wait := rl.Allow("a")
	assert.False(t, ok, "burst is clamped to one")
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.1)
	assert.Equal(t, 1, rl.GetStats()["active_limiters"])

	rl.cleanup(0)
	assert.Equal(t, 0, rl.GetStats()["active_limiters"])

	rl.Close()
	rl.Close()
}
