package orchestrator

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/transport"
)

// --- Adapter Mock ---

type mockAdapter struct {
	mock.Mock
	kind transport.Kind
}

func newMockAdapter(kind transport.Kind) *mockAdapter {
	return &mockAdapter{kind: kind}
}

func (m *mockAdapter) Kind() transport.Kind {
	return m.kind
}

func (m *mockAdapter) Verify(ctx context.Context, req model.VerificationRequest, onProgress model.ProgressFunc) (*model.VerificationResult, error) {
	args := m.Called(ctx, req, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationResult), args.Error(1)
}

// --- Recorder ---

type memRecorder struct {
	mu      sync.Mutex
	results []*model.VerificationResult
}

func (r *memRecorder) Record(_ context.Context, res *model.VerificationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *memRecorder) all() []*model.VerificationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.VerificationResult(nil), r.results...)
}

// --- Resource-tracking adapter ---

// leakAdapter counts opened and released channels and blocks until ctx is
// done or release is closed.
type leakAdapter struct {
	mu       sync.Mutex
	opened   int
	released int
	release  chan struct{}
	result   *model.VerificationResult
}

func (l *leakAdapter) Kind() transport.Kind { return transport.KindStreaming }

func (l *leakAdapter) Verify(ctx context.Context, _ model.VerificationRequest, _ model.ProgressFunc) (*model.VerificationResult, error) {
	l.mu.Lock()
	l.opened++
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.release:
		return l.result, nil
	}
}

func (l *leakAdapter) counts() (opened, released int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened, l.released
}
