package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipshipyard/phishing-detect/detector"
)

func tolerance(t int) *int { return &t }

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	d, err := detector.New(detector.Chain{{
		Name:      "MetaMask",
		Version:   detector.NumberVersion(1),
		Tolerance: tolerance(2),
		Fuzzylist: []string{"metamask.io"},
		Allowlist: []string{"metamask.io"},
		Blocklist: []string{"evil.example"},
	}})
	require.NoError(t, err)
	return NewHandler(d)
}

func TestCheckEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	tests := []struct {
		name   string
		path   string
		code   int
		result bool
		typ    detector.MatchType
	}{
		{"blocked", "/v1/check/login.evil.example", http.StatusOK, true, detector.TypeBlocklist},
		{"allowed", "/v1/check/metamask.io", http.StatusOK, false, detector.TypeAllowlist},
		{"fuzzy", "/v1/check/metamask.com", http.StatusOK, true, detector.TypeFuzzy},
		{"unlisted", "/v1/check/example.org", http.StatusOK, false, detector.TypeAll},
		{"unicode", "/v1/check/b%C3%BCcher.example", http.StatusOK, false, detector.TypeAll},
		{"trailing dot", "/v1/check/evil.example.", http.StatusOK, true, detector.TypeBlocklist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var got detector.CheckResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.result, got.Result)
			assert.Equal(t, tt.typ, got.Type)
		})
	}
}

func TestCheckEndpointErrors(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/check/a..b", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/check/evil.example", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingChecker struct{}

func (failingChecker) Check(string) (detector.CheckResult, error) {
	return detector.CheckResult{}, errors.New("no configuration loaded")
}

func TestCheckEndpointCheckerFailure(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewHandler(failingChecker{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/check/evil.example", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
