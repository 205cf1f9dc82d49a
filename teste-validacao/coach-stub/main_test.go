package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubAPI(t *testing.T) {
	logger, hook := test.NewNullLogger()
	srv := httptest.NewServer(newStubAPI(logger))
	defer srv.Close()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/api/auth/signup", http.StatusCreated},
		{http.MethodPost, "/api/auth/login", http.StatusOK},
		{http.MethodPost, "/api/resume/analyze", http.StatusOK},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
		assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	}
	assert.Len(t, hook.AllEntries(), len(tests))
}
