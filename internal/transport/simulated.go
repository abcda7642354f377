package transport

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/capcheck/internal/model"
)

const (
	defaultSimMinDelay = 2 * time.Second
	defaultSimMaxDelay = 3 * time.Second

	simExplanationPrefix = "This claim was analyzed using AI-powered verification. "
	simContradicted      = "Multiple credible sources contradict this claim."
	simMixed             = "The evidence is mixed or insufficient for a definitive verdict."
)

var lower = cases.Lower(language.Und)

// heuristic is a keyword rule for a known class of false or shaky claims.
type heuristic struct {
	match      func(c string) bool
	verdict    model.Verdict
	confidence int
}

// Rules are checked in order; the first match wins.
var heuristics = []heuristic{
	{
		match: func(c string) bool {
			return strings.Contains(c, "earthquake") &&
				containsAny(c, "predict", "will hit", "tomorrow")
		},
		verdict:    model.VerdictFalse,
		confidence: 96,
	},
	{
		match:      func(c string) bool { return containsAny(c, "cow urine", "cure cancer") },
		verdict:    model.VerdictFalse,
		confidence: 97,
	},
	{
		match: func(c string) bool {
			return strings.Contains(c, "5g") && containsAny(c, "corona", "covid", "virus")
		},
		verdict:    model.VerdictFalse,
		confidence: 98,
	},
	{
		match:      func(c string) bool { return containsAny(c, "flood", "water") },
		verdict:    model.VerdictPartiallyTrue,
		confidence: 72,
	},
	{
		match:      func(c string) bool { return containsAny(c, "cure", "heal") },
		verdict:    model.VerdictFalse,
		confidence: 94,
	},
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// SimulatedOption configures the simulator.
type SimulatedOption func(*Simulated)

// WithDelay sets the bounds of the artificial delay.
func WithDelay(minDelay, maxDelay time.Duration) SimulatedOption {
	return func(s *Simulated) {
		s.minDelay = minDelay
		s.maxDelay = maxDelay
	}
}

// WithRand sets the random source, for reproducible output.
func WithRand(r *rand.Rand) SimulatedOption {
	return func(s *Simulated) {
		s.rng = r
	}
}

// Simulated produces a plausible verdict locally, without network I/O, so
// the product stays usable when the service is unreachable.
type Simulated struct {
	minDelay time.Duration
	maxDelay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulator with a 2-3s delay.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		minDelay: defaultSimMinDelay,
		maxDelay: defaultSimMaxDelay,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, o := range opts {
		o(s)
	}
	if s.maxDelay < s.minDelay {
		s.maxDelay = s.minDelay
	}
	return s
}

// Kind implements Adapter.
func (s *Simulated) Kind() Kind { return KindSimulated }

// Verify waits for the artificial delay and returns a heuristic verdict.
// It fails only when ctx is cancelled.
func (s *Simulated) Verify(ctx context.Context, req model.VerificationRequest, _ model.ProgressFunc) (*model.VerificationResult, error) {
	res, delay := s.compute(req.Claim)

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}
	return res, nil
}

func (s *Simulated) compute(claim string) (*model.VerificationResult, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.minDelay
	if span := s.maxDelay - s.minDelay; span > 0 {
		delay += time.Duration(s.rng.Int64N(int64(span) + 1))
	}

	text := lower.String(claim)
	verdict, confidence := model.Verdict(""), 0
	for _, h := range heuristics {
		if h.match(text) {
			verdict, confidence = h.verdict, h.confidence
			break
		}
	}
	if verdict == "" {
		if s.rng.Float64() > 0.6 {
			verdict = model.VerdictFalse
		} else {
			verdict = model.VerdictPartiallyTrue
		}
		confidence = 70 + s.rng.IntN(25)
	}

	secs := 1.5 + s.rng.Float64()*1.5
	explanation := simExplanationPrefix + simMixed
	if verdict == model.VerdictFalse {
		explanation = simExplanationPrefix + simContradicted
	}

	return &model.VerificationResult{
		ClaimEcho:             claim,
		Verdict:               verdict,
		ConfidencePercent:     confidence,
		SourcesCheckedCount:   8 + s.rng.IntN(12),
		ProcessingTimeSeconds: secs,
		ProcessingTime:        model.FormatProcessingTime(secs),
		Explanation:           explanation,
	}, delay
}
