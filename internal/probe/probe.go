// Package probe checks whether the verification service is reachable and
// holds the result for the rest of the session.
package probe

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

const defaultTimeout = 5 * time.Second

// HealthChecker is the subset of checkapi.Client the prober needs.
type HealthChecker interface {
	Health(ctx context.Context) (*checkapi.HealthResponse, error)
}

// Prober performs a single best-effort liveness check.
type Prober struct {
	client  HealthChecker
	timeout time.Duration
}

// NewProber creates a prober. A zero timeout uses 5s.
func NewProber(client HealthChecker, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Prober{client: client, timeout: timeout}
}

// Probe never fails: any error, or a response without backend:true, is
// reported as unreachable.
func (p *Prober) Probe(ctx context.Context) model.Connectivity {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Health(ctx)
	if err != nil {
		zap.L().Debug("probe: health check failed", zap.Error(err))
		return model.ConnectivityUnreachable
	}
	if !resp.Backend {
		zap.L().Debug("probe: backend not available",
			zap.String("status", resp.Status),
			zap.String("message", resp.Message),
		)
		return model.ConnectivityUnreachable
	}
	return model.ConnectivityReachable
}

// Session holds the connectivity state for one client session. The zero
// value is usable and reports unknown.
type Session struct {
	mu    sync.RWMutex
	state model.Connectivity
}

// NewSession creates a session in the unknown state.
func NewSession() *Session {
	return &Session{state: model.ConnectivityUnknown}
}

// State returns the current connectivity.
func (s *Session) State() model.Connectivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == "" {
		return model.ConnectivityUnknown
	}
	return s.state
}

// Refresh re-probes and stores the result. This is the only way out of the
// unreachable state.
func (s *Session) Refresh(ctx context.Context, p *Prober) model.Connectivity {
	state := p.Probe(ctx)
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	zap.L().Info("probe: connectivity", zap.String("state", string(state)))
	return state
}

// MarkUnreachable downgrades the session after both live transports failed.
// It stays unreachable until the next Refresh.
func (s *Session) MarkUnreachable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.ConnectivityUnreachable {
		zap.L().Warn("probe: marking service unreachable for this session")
	}
	s.state = model.ConnectivityUnreachable
}
