package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"coach-gateway/middleware/ratelimit/infra"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamRecorder struct {
	hits     atomic.Int64
	lastPath atomic.Value
}

func (u *upstreamRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.hits.Add(1)
	u.lastPath.Store(r.URL.Path)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"success":true}`))
}

func newTestRouter(t *testing.T) (http.Handler, *upstreamRecorder) {
	t.Helper()
	store := infra.NewMemoryCounterStore(infra.WithSweepEvery(0))
	t.Cleanup(func() { _ = store.Close() })

	logger, _ := test.NewNullLogger()
	up := &upstreamRecorder{}
	return newRouter(routerDeps{store: store, logger: logger, upstream: up}), up
}

func post(h http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_AuthRoutesShareBucket(t *testing.T) {
	h, up := newTestRouter(t)

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, post(h, "/api/auth/signup", "203.0.113.7").Code)
		require.Equal(t, http.StatusOK, post(h, "/api/auth/login", "203.0.113.7").Code)
	}

	rec := post(h, "/api/auth/login", "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.EqualValues(t, 20, up.hits.Load())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many authentication attempts. Try again later.", body["message"])

	// outro cliente não é afetado
	assert.Equal(t, http.StatusOK, post(h, "/api/auth/login", "203.0.113.8").Code)
}

func TestRouter_TrailingSlashStillLimited(t *testing.T) {
	h, _ := newTestRouter(t)

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, post(h, "/api/resume/analyze/", "198.51.100.1").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, post(h, "/api/resume/analyze", "198.51.100.1").Code)
}

func TestRouter_MixedCasePathStillLimited(t *testing.T) {
	h, up := newTestRouter(t)

	paths := []string{"/api/Auth/login", "/API/AUTH/LOGIN", "/api/auth/Signup/"}
	for i := 0; i < 20; i++ {
		rec := post(h, paths[i%len(paths)], "203.0.113.40")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "20", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := post(h, "/api/Auth/login", "203.0.113.40")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.EqualValues(t, 20, up.hits.Load())

	// o upstream recebe o path original
	assert.Equal(t, "/API/AUTH/LOGIN", up.lastPath.Load())
}

func TestRouter_PresetHeaders(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		path  string
		limit string
	}{
		{"/api/interview/start", "30"},
		{"/api/interview/feedback", "25"},
		{"/api/resume/analyze", "10"},
		{"/api/auth/signup", "20"},
	}
	for _, tt := range tests {
		rec := post(h, tt.path, "192.0.2.50")
		assert.Equal(t, http.StatusOK, rec.Code, tt.path)
		assert.Equal(t, tt.limit, rec.Header().Get("X-RateLimit-Limit"), tt.path)
	}
}

func TestRouter_UnlimitedRoutesAreProxied(t *testing.T) {
	h, up := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/interview/start", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, up.hits.Load())
}

func TestRouter_Healthz(t *testing.T) {
	h, up := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Zero(t, up.hits.Load())
}

func TestProxy_UpstreamDownReturns502(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	target, err := url.Parse(dead.URL)
	require.NoError(t, err)
	dead.Close()

	logger, hook := test.NewNullLogger()
	proxy := newProxy(target, logger)

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"bad gateway"}`, rec.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "proxy error", hook.LastEntry().Message)
}
