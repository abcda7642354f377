package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/capcheck/internal/config"
)

func TestResolvePort_FlagSet(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 3000))
}

func TestResolvePort_FlagZero(t *testing.T) {
	assert.Equal(t, 3000, resolvePort(0, 3000))
}

func TestGatewayConfig(t *testing.T) {
	c := &config.Config{}
	c.Server.BackendURL = "http://backend:8000"
	c.Server.AllowedOrigins = []string{"https://capcheck.example"}
	c.Server.RateLimit = 2
	c.Server.RateBurst = 4
	c.Server.BreakerThreshold = 5
	c.Server.BreakerReset = 30 * time.Second
	c.Trending.CacheTTL = time.Minute
	c.Trending.Retries = 2

	gc := gatewayConfig(c)
	assert.Equal(t, "http://backend:8000", gc.BackendURL)
	assert.Equal(t, []string{"https://capcheck.example"}, gc.AllowedOrigins)
	assert.InDelta(t, 2.0, gc.RateLimit, 0.001)
	assert.Equal(t, 4, gc.RateBurst)
	assert.Equal(t, 5, gc.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, gc.Breaker.ResetTimeout)
	assert.NotNil(t, gc.Breaker.OnStateChange)
	assert.Equal(t, time.Minute, gc.Trending.CacheTTL)
	assert.Equal(t, 2, gc.Trending.Retry.MaxAttempts)
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "pong")
	})

	// Find a free port.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	errCh := make(chan error, 1)
	go func() {
		errCh <- startServer(ctx, mux, port, time.Second)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartServer_ListenError(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close() //nolint:errcheck
	port := l.Addr().(*net.TCPAddr).Port

	err = startServer(context.Background(), http.NewServeMux(), port, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server listen")
}
