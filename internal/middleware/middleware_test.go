package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberelites/formmailer/internal/logger"
)

type fakeCounter struct {
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(_ context.Context, key string) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCounter) TimeToLive(_ context.Context, key string) (time.Duration, error) {
	return f.ttls[key], nil
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimit(t *testing.T) {
	counter := newFakeCounter()
	mw := New(counter, nil, logger.Nop())
	h := mw.RateLimit(RateLimitConfig{Limit: 2, Window: time.Minute, KeyFn: IPKey})(okHandler)

	do := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("10.0.0.1:1111")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, time.Minute, counter.ttls["formmailer:ratelimit:10.0.0.1"])

	// Each connection has its own source port
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2222").Code)

	rec = do("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
}

func TestRateLimit_IgnoresUntrustedForwardedFor(t *testing.T) {
	mw := New(newFakeCounter(), nil, logger.Nop())
	h := mw.ClientIP(mw.RateLimit(RateLimitConfig{Limit: 1, Window: time.Minute, KeyFn: IPKey})(okHandler))

	codes := make([]int, 0, 3)
	for _, spoof := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", spoof)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.5"})
	require.NoError(t, err)
	mw := New(nil, trusted, logger.Nop())

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  []string
		want       string
	}{
		{name: "direct", remoteAddr: "203.0.113.7:5000", want: "203.0.113.7"},
		{name: "untrusted peer header ignored", remoteAddr: "203.0.113.7:5000", forwarded: []string{"1.2.3.4"}, want: "203.0.113.7"},
		{name: "trusted proxy", remoteAddr: "10.1.2.3:443", forwarded: []string{"198.51.100.9"}, want: "198.51.100.9"},
		{name: "client-supplied prefix skipped", remoteAddr: "10.1.2.3:443", forwarded: []string{"1.2.3.4, 198.51.100.9"}, want: "198.51.100.9"},
		{name: "proxy chain", remoteAddr: "192.168.1.5:443", forwarded: []string{"198.51.100.9, 10.9.9.9"}, want: "198.51.100.9"},
		{name: "repeated headers", remoteAddr: "10.1.2.3:443", forwarded: []string{"1.2.3.4", "198.51.100.9"}, want: "198.51.100.9"},
		{name: "trusted proxy without header", remoteAddr: "10.1.2.3:443", want: "10.1.2.3"},
		{name: "garbage hop", remoteAddr: "10.1.2.3:443", forwarded: []string{"not-an-ip"}, want: "10.1.2.3"},
		{name: "ipv6 peer", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := mw.ClientIP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = IPKey(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, f := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", f)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestIPKey_WithoutClientIPMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "10.0.0.1", IPKey(req))
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 127.0.0.1 ", "", "::1"})
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "127.0.0.1/32", prefixes[1].String())
	assert.Equal(t, "::1/128", prefixes[2].String())

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestRateLimit_Disabled(t *testing.T) {
	mw := New(newFakeCounter(), nil, logger.Nop())
	h := mw.RateLimit(RateLimitConfig{Limit: 0, KeyFn: IPKey})(okHandler)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	mw := New(nil, nil, logger.Nop())

	var seen string
	h := mw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "has space")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "has space", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", maxRequestIDLen+1))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36)
}

func TestRecover(t *testing.T) {
	mw := New(nil, nil, logger.Nop())
	h := mw.Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_server_error")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	mw := New(nil, nil, logger.NewWithWriter(&buf, "info", "json"))
	h := mw.RequestID(mw.Timing(mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/triggers", nil))

	out := buf.String()
	assert.Contains(t, out, `"path":"/api/v1/triggers"`)
	assert.Contains(t, out, `"status":202`)
	assert.Contains(t, out, `"request_id"`)
}
