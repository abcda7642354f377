package checkapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      string
		wantFallback bool
		wantVerdict  string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{"success": true, "data": {
				"claim_id": "c-1", "claim": "5G spreads viruses", "verdict": "FALSE",
				"confidence": 96, "sources": 18, "time": "11.2s", "evidence": [], "cached": true
			}}`,
			wantVerdict: "FALSE",
		},
		{
			name:    "validation_error",
			status:  http.StatusBadRequest,
			body:    `{"error": "Claim is required and must be a string"}`,
			wantErr: "unexpected status 400: Claim is required",
		},
		{
			name:         "backend_unavailable",
			status:       http.StatusServiceUnavailable,
			body:         `{"error": "Backend service unavailable", "fallback": true}`,
			wantErr:      "unexpected status 503",
			wantFallback: true,
		},
		{
			name:    "non_json_error",
			status:  http.StatusBadGateway,
			body:    "bad gateway",
			wantErr: "unexpected status 502: bad gateway",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
		{
			name:    "missing_data",
			status:  http.StatusOK,
			body:    `{"success": true}`,
			wantErr: "response has no data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/check", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req CheckRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "5G spreads viruses", req.Claim)
				assert.Equal(t, "en", req.Language)
				assert.True(t, req.SkipCache)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL))
			data, err := client.Check(context.Background(), CheckRequest{
				Claim:     "5G spreads viruses",
				Language:  "en",
				SkipCache: true,
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, data)

				var apiErr *APIError
				if errors.As(err, &apiErr) {
					assert.Equal(t, tt.wantFallback, apiErr.Fallback())
				} else {
					assert.False(t, tt.wantFallback)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantVerdict, data.Verdict)
			assert.Equal(t, 96.0, data.Confidence)
			assert.Equal(t, 18, data.Sources)
			assert.Equal(t, "11.2s", data.Time)
			assert.True(t, data.Cached)
		})
	}
}

func TestCheck_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Check(ctx, CheckRequest{Claim: "x", Language: "en"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantBackend bool
		wantStatus  string
	}{
		{
			name:        "healthy",
			status:      http.StatusOK,
			body:        `{"status": "healthy", "backend": true}`,
			wantBackend: true,
			wantStatus:  "healthy",
		},
		{
			name:       "unhealthy",
			status:     http.StatusServiceUnavailable,
			body:       `{"status": "unhealthy", "backend": false, "message": "Backend not reachable"}`,
			wantStatus: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/check", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL))
			resp, err := client.Health(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantBackend, resp.Backend)
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(WithBaseURL(url))
	_, err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send health request")
}

func TestTrending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trending", r.URL.Path)
		assert.Equal(t, "health", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{
			"claims": [{"id": "2", "claim": "Coffee causes dehydration", "verdict": "MOSTLY_FALSE",
				"confidence": 89, "category": "health", "checked_count": 1923,
				"checked_at": "2026-01-01T10:00:00Z"}],
			"categories": ["politics", "health"],
			"total": 1
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	resp, err := client.Trending(context.Background(), "health")
	require.NoError(t, err)
	require.Len(t, resp.Claims, 1)
	assert.Equal(t, "MOSTLY_FALSE", resp.Claims[0].Verdict)
	assert.Equal(t, 1923, resp.Claims[0].CheckedCount)
	assert.Equal(t, 1, resp.Total)
}

func TestTrending_DefaultCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{"claims": [], "categories": [], "total": 0}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Trending(context.Background(), "")
	require.NoError(t, err)
}

func TestStream_Open(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/check/stream", r.URL.Path)
		assert.Equal(t, "Is the earth flat?", r.URL.Query().Get("claim"))
		assert.Equal(t, "hi", r.URL.Query().Get("language"))
		assert.Equal(t, "true", r.URL.Query().Get("skip_cache"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"type\":\"step\",\"step\":\"searching\"}\n\n"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), CheckRequest{Claim: "Is the earth flat?", Language: "hi", SkipCache: true})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, EventStep, ev.Type)
	assert.Equal(t, "searching", ev.Step)
}

func TestStream_OpenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "Failed to connect to backend", "fallback": true}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Stream(context.Background(), CheckRequest{Claim: "x", Language: "en"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.True(t, apiErr.Fallback())
	assert.Equal(t, "Failed to connect to backend", apiErr.Body.Error)
}
