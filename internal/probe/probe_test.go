package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

type stubHealth struct {
	resp *checkapi.HealthResponse
	err  error
}

func (s stubHealth) Health(context.Context) (*checkapi.HealthResponse, error) {
	return s.resp, s.err
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name string
		stub stubHealth
		want model.Connectivity
	}{
		{"healthy", stubHealth{resp: &checkapi.HealthResponse{Status: "healthy", Backend: true}}, model.ConnectivityReachable},
		{"backend_false", stubHealth{resp: &checkapi.HealthResponse{Status: "unhealthy"}}, model.ConnectivityUnreachable},
		{"error", stubHealth{err: errors.New("dial tcp: connection refused")}, model.ConnectivityUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewProber(tt.stub, 0).Probe(context.Background()))
		})
	}
}

func TestProbe_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy","backend":false,"message":"Backend not reachable"}`))
	}))
	defer srv.Close()

	p := NewProber(checkapi.NewClient(checkapi.WithBaseURL(srv.URL)), time.Second)
	assert.Equal(t, model.ConnectivityUnreachable, p.Probe(context.Background()))
}

func TestProbe_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := NewProber(checkapi.NewClient(checkapi.WithBaseURL(srv.URL)), 20*time.Millisecond)
	assert.Equal(t, model.ConnectivityUnreachable, p.Probe(context.Background()))
}

func TestSession(t *testing.T) {
	var zero Session
	assert.Equal(t, model.ConnectivityUnknown, zero.State())

	s := NewSession()
	assert.Equal(t, model.ConnectivityUnknown, s.State())

	healthy := NewProber(stubHealth{resp: &checkapi.HealthResponse{Backend: true}}, 0)
	assert.Equal(t, model.ConnectivityReachable, s.Refresh(context.Background(), healthy))
	assert.Equal(t, model.ConnectivityReachable, s.State())

	s.MarkUnreachable()
	assert.Equal(t, model.ConnectivityUnreachable, s.State())

	s.MarkUnreachable()
	assert.Equal(t, model.ConnectivityUnreachable, s.State())

	assert.Equal(t, model.ConnectivityReachable, s.Refresh(context.Background(), healthy))
}
