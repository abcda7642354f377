// Package history keeps the bounded, deduplicated list of verified claims
// and the user's cache preference.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/capcheck/internal/gamification"
	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/store"
)

// Store keys.
const (
	EntriesKey     = "history"
	PreferencesKey = "preferences"
)

// DefaultMaxEntries bounds the history.
const DefaultMaxEntries = 10

// Counter is the gamification collaborator.
type Counter interface {
	Increment(ctx context.Context) []gamification.Badge
	Reset(ctx context.Context)
}

// Preferences are persisted user settings.
type Preferences struct {
	SkipCache bool `json:"skip_cache"`
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMaxEntries overrides the history bound.
func WithMaxEntries(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.max = n
		}
	}
}

// WithCounter increments counter once per recorded result and resets it on
// Clear.
func WithCounter(c Counter) Option {
	return func(r *Reconciler) { r.counter = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// Reconciler merges results into history. Storage errors are logged and
// never returned.
type Reconciler struct {
	store   store.Store
	counter Counter
	max     int
	now     func() time.Time

	mu sync.Mutex
}

// New creates a Reconciler.
func New(s store.Store, opts ...Option) *Reconciler {
	r := &Reconciler{store: s, max: DefaultMaxEntries, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Record moves res's claim to the front of the history, dropping any older
// entry for the same claim and anything beyond the bound.
func (r *Reconciler) Record(ctx context.Context, res *model.VerificationResult) {
	if res == nil {
		return
	}
	claim, err := model.NormalizeClaim(res.ClaimEcho)
	if err != nil {
		return
	}

	r.mu.Lock()
	entries := r.load(ctx)
	next := make([]model.HistoryEntry, 0, r.max)
	next = append(next, model.HistoryEntry{
		ID:                newID(),
		Claim:             claim,
		Verdict:           res.Verdict,
		ConfidencePercent: res.ConfidencePercent,
		CreatedAt:         r.now().UTC(),
	})
	for _, e := range entries {
		if len(next) == r.max {
			break
		}
		if e.Claim != claim {
			next = append(next, e)
		}
	}
	r.save(ctx, EntriesKey, next)
	r.mu.Unlock()

	if r.counter != nil {
		r.counter.Increment(ctx)
	}
}

// List returns the history, newest first.
func (r *Reconciler) List(ctx context.Context) []model.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Find returns the entry for claim, if any.
func (r *Reconciler) Find(ctx context.Context, claim string) (model.HistoryEntry, bool) {
	c, err := model.NormalizeClaim(claim)
	if err != nil {
		return model.HistoryEntry{}, false
	}
	for _, e := range r.List(ctx) {
		if e.Claim == c {
			return e, true
		}
	}
	return model.HistoryEntry{}, false
}

// Clear empties the history, resets the counter and turns skip-cache on so
// the next check asks for fresh results.
func (r *Reconciler) Clear(ctx context.Context) {
	r.mu.Lock()
	r.save(ctx, EntriesKey, []model.HistoryEntry{})
	r.save(ctx, PreferencesKey, Preferences{SkipCache: true})
	r.mu.Unlock()

	if r.counter != nil {
		r.counter.Reset(ctx)
	}
}

// SkipCache reports the persisted skip-cache preference.
func (r *Reconciler) SkipCache(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	var p Preferences
	store.LoadJSON(ctx, r.store, PreferencesKey, &p)
	return p.SkipCache
}

// SetSkipCache sets the skip-cache preference.
func (r *Reconciler) SetSkipCache(ctx context.Context, on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.save(ctx, PreferencesKey, Preferences{SkipCache: on})
}

func (r *Reconciler) load(ctx context.Context) []model.HistoryEntry {
	var entries []model.HistoryEntry
	if !store.LoadJSON(ctx, r.store, EntriesKey, &entries) {
		return nil
	}
	if len(entries) > r.max {
		entries = entries[:r.max]
	}
	return entries
}

func (r *Reconciler) save(ctx context.Context, key string, v any) {
	if err := store.SaveJSON(ctx, r.store, key, v); err != nil {
		zap.L().Warn("history: save failed", zap.String("key", key), zap.Error(err))
	}
}

// newID returns a time-ordered id.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
