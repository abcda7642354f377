// Package gamification keeps the per-user check counter, streak and badges.
package gamification

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/capcheck/internal/store"
)

// StateKey is the store key the state is persisted under.
const StateKey = "gamification"

const streakWindow = 24 * time.Hour

// Badge is an achievement unlocked at a number of checks.
type Badge struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Requirement int
}

// Badges is the catalogue, in unlock order.
var Badges = []Badge{
	{ID: "first_check", Name: "First Check", Description: "Checked your first claim", Icon: "🎯", Requirement: 1},
	{ID: "myth_buster", Name: "Myth Buster", Description: "Busted 10 myths", Icon: "💥", Requirement: 10},
	{ID: "truth_seeker", Name: "Truth Seeker", Description: "Sought truth 25 times", Icon: "🔍", Requirement: 25},
	{ID: "cap_detective", Name: "Cap Detective", Description: "Detected 50 caps", Icon: "🕵️", Requirement: 50},
	{ID: "fact_champion", Name: "Fact Champion", Description: "Checked 100 claims", Icon: "🏆", Requirement: 100},
}

// State is the persisted counter state.
type State struct {
	ClaimsChecked  int       `json:"claims_checked"`
	UnlockedBadges []string  `json:"unlocked_badges"`
	LastCheckAt    time.Time `json:"last_check_at"`
	Streak         int       `json:"streak"`
	FactScore      int       `json:"fact_score"`
}

// FactScore is floor(100 * log10(n+1)).
func FactScore(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Floor(100 * math.Log10(float64(n+1))))
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithUnlockHandler is called for each newly unlocked badge.
func WithUnlockHandler(fn func(Badge)) Option {
	return func(t *Tracker) { t.onUnlock = fn }
}

// Tracker reads and writes State through a store. Storage failures are
// logged and treated as an empty state.
type Tracker struct {
	store    store.Store
	now      func() time.Time
	onUnlock func(Badge)
	mu       sync.Mutex
}

// New creates a Tracker.
func New(s store.Store, opts ...Option) *Tracker {
	t := &Tracker{store: s, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// State returns the persisted state.
func (t *Tracker) State(ctx context.Context) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(ctx)
}

// Increment counts one check, updates the streak and fact score and returns
// the badges unlocked by it.
func (t *Tracker) Increment(ctx context.Context) []Badge {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.load(ctx)
	now := t.now()

	if !st.LastCheckAt.IsZero() && now.Sub(st.LastCheckAt) < streakWindow {
		st.Streak++
	} else {
		st.Streak = 1
	}
	st.ClaimsChecked++
	st.LastCheckAt = now
	st.FactScore = FactScore(st.ClaimsChecked)

	var unlocked []Badge
	for _, b := range Badges {
		if st.ClaimsChecked >= b.Requirement && !slices.Contains(st.UnlockedBadges, b.ID) {
			st.UnlockedBadges = append(st.UnlockedBadges, b.ID)
			unlocked = append(unlocked, b)
		}
	}

	t.save(ctx, st)
	for _, b := range unlocked {
		zap.L().Info("gamification: badge unlocked", zap.String("badge", b.ID))
		if t.onUnlock != nil {
			t.onUnlock(b)
		}
	}
	return unlocked
}

// Reset clears all progress.
func (t *Tracker) Reset(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.save(ctx, State{})
}

// Unlocked returns the unlocked badges in catalogue order.
func (t *Tracker) Unlocked(ctx context.Context) []Badge {
	st := t.State(ctx)
	var out []Badge
	for _, b := range Badges {
		if slices.Contains(st.UnlockedBadges, b.ID) {
			out = append(out, b)
		}
	}
	return out
}

// NextBadge returns the first badge not yet unlocked.
func (t *Tracker) NextBadge(ctx context.Context) (Badge, bool) {
	return nextBadge(t.State(ctx))
}

// Progress is the percentage of the way from the last unlocked badge to the
// next one; 100 once every badge is unlocked.
func (t *Tracker) Progress(ctx context.Context) float64 {
	return progress(t.State(ctx))
}

func nextBadge(st State) (Badge, bool) {
	for _, b := range Badges {
		if !slices.Contains(st.UnlockedBadges, b.ID) {
			return b, true
		}
	}
	return Badge{}, false
}

func progress(st State) float64 {
	next, ok := nextBadge(st)
	if !ok {
		return 100
	}
	start := 0
	for _, b := range Badges {
		if slices.Contains(st.UnlockedBadges, b.ID) {
			start = b.Requirement
		}
	}
	span := next.Requirement - start
	if span <= 0 {
		return 100
	}
	return min(100, float64(st.ClaimsChecked-start)/float64(span)*100)
}

func (t *Tracker) load(ctx context.Context) State {
	var st State
	if !store.LoadJSON(ctx, t.store, StateKey, &st) {
		return State{}
	}
	return st
}

func (t *Tracker) save(ctx context.Context, st State) {
	if err := store.SaveJSON(ctx, t.store, StateKey, st); err != nil {
		zap.L().Warn("gamification: save failed", zap.Error(err))
	}
}
