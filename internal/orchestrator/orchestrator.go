// Package orchestrator runs a verification through the transport chain
// (streaming, then buffered, then simulated), drives the progress tracker
// and records successful results.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/probe"
	"github.com/sells-group/capcheck/internal/progress"
	"github.com/sells-group/capcheck/internal/resilience"
	"github.com/sells-group/capcheck/internal/transport"
)

// State is the orchestrator's position in the transport chain.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateBuffered  State = "buffered"
	StateSimulated State = "simulated"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// KindPreset marks an outcome served from the preset catalogue.
const KindPreset transport.Kind = "preset"

const defaultPresetTimeout = 20 * time.Second

var (
	// ErrSuperseded is returned by a verification cancelled because a newer
	// one started.
	ErrSuperseded = eris.New("orchestrator: superseded by a newer verification")
	// ErrNothingToRetry is returned by Retry before any verification ran.
	ErrNothingToRetry = eris.New("orchestrator: no previous verification to retry")
)

// Recorder stores successful results. Implementations handle their own
// storage errors.
type Recorder interface {
	Record(ctx context.Context, res *model.VerificationResult)
}

// Outcome is a settled verification.
type Outcome struct {
	Request   model.VerificationRequest
	Result    *model.VerificationResult
	Transport transport.Kind
	// Attempts lists every transport tried, in order.
	Attempts []transport.Kind
}

// Config holds timing parameters.
type Config struct {
	StageInterval time.Duration
	TickInterval  time.Duration
	PresetTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder records every successful result.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithConfig sets timing parameters. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) {
		if cfg.StageInterval > 0 {
			o.cfg.StageInterval = cfg.StageInterval
		}
		if cfg.TickInterval > 0 {
			o.cfg.TickInterval = cfg.TickInterval
		}
		if cfg.PresetTimeout > 0 {
			o.cfg.PresetTimeout = cfg.PresetTimeout
		}
	}
}

// WithProgress receives tracker snapshots while a verification runs.
func WithProgress(fn func(progress.Snapshot)) Option {
	return func(o *Orchestrator) { o.onSnapshot = fn }
}

// WithEvents receives every progress event, including the terminal one.
func WithEvents(fn model.ProgressFunc) Option {
	return func(o *Orchestrator) { o.onEvent = fn }
}

// WithStateChange is called on every state transition.
func WithStateChange(fn func(State)) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

// run is one in-flight verification.
type run struct {
	cancel     context.CancelFunc
	done       chan struct{}
	superseded bool
}

// Orchestrator guarantees at most one active verification: starting a new
// one cancels the previous one and waits for it to release its resources.
type Orchestrator struct {
	streaming transport.Adapter
	buffered  transport.Adapter
	simulated transport.Adapter
	session   *probe.Session

	cfg        Config
	recorder   Recorder
	onSnapshot func(progress.Snapshot)
	onEvent    model.ProgressFunc
	onState    func(State)

	// start serializes the hand-over between verifications.
	start sync.Mutex

	mu      sync.Mutex
	state   State
	active  *run
	last    *model.VerificationRequest
	lastErr error

	background sync.WaitGroup
}

// New creates an orchestrator over the three adapters.
func New(streaming, buffered, simulated transport.Adapter, session *probe.Session, opts ...Option) *Orchestrator {
	if session == nil {
		session = probe.NewSession()
	}
	o := &Orchestrator{
		streaming: streaming,
		buffered:  buffered,
		simulated: simulated,
		session:   session,
		cfg:       Config{PresetTimeout: defaultPresetTimeout},
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastRequest returns the most recently submitted request.
func (o *Orchestrator) LastRequest() (model.VerificationRequest, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return model.VerificationRequest{}, false
	}
	return *o.last, true
}

// LastError returns the error of the most recent verification, if it failed.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Verify runs req through the transport chain and records the result.
func (o *Orchestrator) Verify(ctx context.Context, req model.VerificationRequest) (*Outcome, error) {
	return o.verify(ctx, req, true)
}

// Retry re-invokes the last request from scratch.
func (o *Orchestrator) Retry(ctx context.Context) (*Outcome, error) {
	req, ok := o.LastRequest()
	if !ok {
		return nil, ErrNothingToRetry
	}
	return o.Verify(ctx, req)
}

// Wait blocks until every background verification started by RunPreset has
// settled.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// Cancel stops the active verification, if any, and waits for it to release
// its resources.
func (o *Orchestrator) Cancel() {
	o.start.Lock()
	defer o.start.Unlock()
	o.supersede()
}

func (o *Orchestrator) verify(ctx context.Context, req model.VerificationRequest, record bool) (*Outcome, error) {
	if _, err := model.NormalizeClaim(req.Claim); err != nil {
		return nil, err
	}

	runCtx, r := o.begin(ctx, req)
	defer o.end(r)

	tracker := progress.New(progress.Config{
		StageInterval: o.cfg.StageInterval,
		TickInterval:  o.cfg.TickInterval,
		OnChange:      o.onSnapshot,
	})
	tracker.Start()
	defer tracker.Stop()

	onProgress := func(ev model.ProgressEvent) {
		tracker.Handle(ev)
		o.onEvent.Emit(ev)
	}

	out, err := o.runChain(runCtx, req, onProgress)
	tracker.Finish()

	if err != nil {
		if runCtx.Err() != nil {
			o.mu.Lock()
			superseded := r.superseded
			o.mu.Unlock()
			if superseded {
				err = ErrSuperseded
			}
		}
		o.onEvent.Emit(model.FailureEvent(err.Error()))
		o.settle(StateFailed, err)
		return nil, err
	}

	o.onEvent.Emit(model.SuccessEvent(out.Result))
	o.settle(StateSucceeded, nil)
	if record && o.recorder != nil {
		o.recorder.Record(ctx, out.Result)
	}
	return out, nil
}

// runChain walks the transports. Unreachable sessions go straight to the
// simulator.
func (o *Orchestrator) runChain(ctx context.Context, req model.VerificationRequest, onProgress model.ProgressFunc) (*Outcome, error) {
	chain := []transport.Adapter{o.streaming, o.buffered, o.simulated}
	if o.session.State() == model.ConnectivityUnreachable {
		chain = []transport.Adapter{o.simulated}
	}

	out := &Outcome{Request: req}
	var last error
	for _, a := range chain {
		if a == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o.setState(stateFor(a.Kind()))
		out.Attempts = append(out.Attempts, a.Kind())

		res, err := a.Verify(ctx, req, onProgress)
		if err == nil {
			out.Result = res
			out.Transport = a.Kind()
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !resilience.IsFallbackEligible(err) {
			zap.L().Debug("orchestrator: terminal transport error",
				zap.String("transport", string(a.Kind())),
				zap.Error(err),
			)
			return nil, err
		}

		zap.L().Warn("orchestrator: transport failed, falling back",
			zap.String("transport", string(a.Kind())),
			zap.Error(err),
		)
		if a.Kind() == transport.KindBuffered {
			o.session.MarkUnreachable()
		}
		last = err
	}

	attempts := make([]string, len(out.Attempts))
	for i, k := range out.Attempts {
		attempts[i] = string(k)
	}
	return nil, &resilience.ExhaustionError{Attempts: attempts, Last: last}
}

// begin supersedes any active verification and registers a new one.
func (o *Orchestrator) begin(ctx context.Context, req model.VerificationRequest) (context.Context, *run) {
	o.start.Lock()
	defer o.start.Unlock()

	o.supersede()

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}

	o.mu.Lock()
	o.active = r
	last := req
	o.last = &last
	o.lastErr = nil
	o.mu.Unlock()

	return runCtx, r
}

// supersede cancels the active run and waits until it has released its
// adapter and timers. Callers hold o.start.
func (o *Orchestrator) supersede() {
	o.mu.Lock()
	prev := o.active
	if prev != nil {
		prev.superseded = true
	}
	o.mu.Unlock()

	if prev == nil {
		return
	}
	prev.cancel()
	<-prev.done
}

func (o *Orchestrator) end(r *run) {
	r.cancel()
	o.mu.Lock()
	if o.active == r {
		o.active = nil
	}
	o.mu.Unlock()
	close(r.done)
}

func (o *Orchestrator) settle(s State, err error) {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	o.setState(s)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	if o.onState != nil {
		o.onState(s)
	}
}

func stateFor(k transport.Kind) State {
	switch k {
	case transport.KindStreaming:
		return StateStreaming
	case transport.KindBuffered:
		return StateBuffered
	default:
		return StateSimulated
	}
}

// RunPreset verifies an example claim, racing the live chain against the
// preset timeout. If the timeout wins, the canned result is returned while
// the live run continues in the background until it settles; its result is
// discarded. A failed live run also yields the canned result, which is
// not recorded.
func (o *Orchestrator) RunPreset(ctx context.Context, p Preset, language string, skipCache bool) (*Outcome, error) {
	req, err := model.NewVerificationRequest(p.Claim, language, skipCache)
	if err != nil {
		return nil, err
	}

	type liveResult struct {
		out *Outcome
		err error
	}
	results := make(chan liveResult, 1)

	o.background.Add(1)
	go func() {
		defer o.background.Done()
		out, err := o.verify(ctx, req, false)
		if err != nil && !errors.Is(err, ErrSuperseded) {
			zap.L().Debug("orchestrator: preset live run failed", zap.Error(err))
		}
		results <- liveResult{out: out, err: err}
	}()

	timer := time.NewTimer(o.cfg.PresetTimeout)
	defer timer.Stop()

	var out *Outcome
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-results:
		switch {
		case r.err == nil:
			out = r.out
		case errors.Is(r.err, ErrSuperseded), ctx.Err() != nil:
			return nil, r.err
		default:
			// Not a successful verification, so it is not recorded.
			return &Outcome{Request: req, Result: p.canned(cannedErrorExplanation), Transport: KindPreset}, nil
		}
	case <-timer.C:
		zap.L().Info("orchestrator: preset timeout, serving canned result",
			zap.String("preset", p.ID),
			zap.Duration("timeout", o.cfg.PresetTimeout),
		)
		out = &Outcome{Request: req, Result: p.canned(cannedTimeoutExplanation), Transport: KindPreset}
	}

	if o.recorder != nil {
		o.recorder.Record(ctx, out.Result)
	}
	return out, nil
}
