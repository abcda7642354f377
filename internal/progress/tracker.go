package progress

import (
	"sync"
	"time"

	"github.com/sells-group/capcheck/internal/model"
)

const (
	defaultStageInterval = 6 * time.Second
	defaultTickInterval  = time.Second
)

// SourceActivity is the latest reported state of one source.
type SourceActivity struct {
	Source string
	Status model.SourceStatus
	Count  int
}

// Snapshot is a point-in-time copy of the tracker state.
type Snapshot struct {
	Stage          Stage
	Message        string
	ElapsedSeconds int
	Sources        []SourceActivity
	Current        string
	Finished       bool
}

// Config controls the tracker timers.
type Config struct {
	// StageInterval is how often the stage advances on its own when the
	// transport sends no stage events. Default: 6s.
	StageInterval time.Duration
	// TickInterval is the elapsed counter period. Default: 1s.
	TickInterval time.Duration
	// OnChange is called after every state change, in order, from whichever
	// goroutine caused it. It may call Snapshot but must not block or call
	// Start, Handle, Finish or Stop.
	OnChange func(Snapshot)
}

// Tracker follows one verification. Handle may be passed directly as the
// transports' progress callback. A Tracker is reusable: Start resets it.
type Tracker struct {
	cfg Config

	// emitMu orders OnChange calls with the changes that produced them.
	emitMu sync.Mutex

	mu       sync.Mutex
	stage    Stage
	message  string
	elapsed  int
	sources  []SourceActivity
	index    map[string]int
	current  string
	finished bool
	// driven is set when a transport stage event arrived since the last
	// timer tick.
	driven bool

	stop chan struct{}
	done chan struct{}
}

// New creates a tracker.
func New(cfg Config) *Tracker {
	if cfg.StageInterval <= 0 {
		cfg.StageInterval = defaultStageInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	return &Tracker{cfg: cfg, index: make(map[string]int)}
}

// Start resets the state to the first stage and starts both timers. Any
// timers from a previous run are stopped first.
func (t *Tracker) Start() {
	t.Stop()

	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	t.stage = StageReading
	t.message = ""
	t.elapsed = 0
	t.sources = nil
	t.index = make(map[string]int)
	t.current = ""
	t.finished = false
	t.driven = false
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	stop, done := t.stop, t.done
	snap := t.snapshotLocked()
	t.mu.Unlock()

	go t.run(stop, done)
	t.notify(snap)
}

// Handle applies a progress event. Events after Finish are ignored.
func (t *Tracker) Handle(ev model.ProgressEvent) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}

	switch ev.Kind {
	case model.EventStage:
		if ev.Message != "" {
			t.message = ev.Message
		}
		if s, ok := LookupStage(ev.StageID); ok {
			t.driven = true
			t.advanceLocked(min(s, penultimate))
		}
	case model.EventSource:
		t.sourceLocked(ev)
	default:
		t.mu.Unlock()
		return
	}

	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

// Finish moves to the final stage, stops both timers and waits for them to
// exit. It is idempotent.
func (t *Tracker) Finish() {
	t.Stop()

	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.stage = StageVerdict
	t.current = ""
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

// Stop halts the timers without changing the stage, and returns once the
// timer goroutine has exited.
func (t *Tracker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) run(stop, done chan struct{}) {
	defer close(done)

	stageTicker := time.NewTicker(t.cfg.StageInterval)
	defer stageTicker.Stop()
	elapsedTicker := time.NewTicker(t.cfg.TickInterval)
	defer elapsedTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-elapsedTicker.C:
			t.emitMu.Lock()
			t.mu.Lock()
			t.elapsed++
			snap := t.snapshotLocked()
			t.mu.Unlock()
			t.notify(snap)
			t.emitMu.Unlock()
		case <-stageTicker.C:
			t.emitMu.Lock()
			t.mu.Lock()
			changed := false
			if !t.driven && t.stage < penultimate {
				t.stage++
				changed = true
			}
			t.driven = false
			snap := t.snapshotLocked()
			t.mu.Unlock()
			if changed {
				t.notify(snap)
			}
			t.emitMu.Unlock()
		}
	}
}

func (t *Tracker) advanceLocked(s Stage) {
	if s > t.stage {
		t.stage = s
	}
}

func (t *Tracker) sourceLocked(ev model.ProgressEvent) {
	i, ok := t.index[ev.Source]
	if !ok {
		t.index[ev.Source] = len(t.sources)
		t.sources = append(t.sources, SourceActivity{Source: ev.Source})
		i = len(t.sources) - 1
	}
	t.sources[i].Status = ev.Status
	if ev.FoundCount > 0 {
		t.sources[i].Count = ev.FoundCount
	}

	switch ev.Status {
	case model.SourceSearching:
		t.current = ev.Source
	case model.SourceFound:
		if t.current == ev.Source {
			t.current = ""
		}
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		Stage:          t.stage,
		Message:        t.message,
		ElapsedSeconds: t.elapsed,
		Sources:        append([]SourceActivity(nil), t.sources...),
		Current:        t.current,
		Finished:       t.finished,
	}
}

func (t *Tracker) notify(s Snapshot) {
	if t.cfg.OnChange != nil {
		t.cfg.OnChange(s)
	}
}
