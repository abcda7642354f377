package transport

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/capcheck/internal/model"
)

func newTestSimulated(seed uint64) *Simulated {
	return NewSimulated(
		WithDelay(0, 0),
		WithRand(rand.New(rand.NewPCG(seed, seed))),
	)
}

func TestSimulated_Heuristics(t *testing.T) {
	tests := []struct {
		claim      string
		verdict    model.Verdict
		confidence int
	}{
		{"NASA said a 7.8 magnitude earthquake will hit Delhi tomorrow", model.VerdictFalse, 96},
		{"Scientists can predict the next EARTHQUAKE", model.VerdictFalse, 96},
		{"Cow urine can cure cancer", model.VerdictFalse, 97},
		{"5G towers spread corona", model.VerdictFalse, 98},
		{"5G towers are making people sick and spreading viruses", model.VerdictFalse, 98},
		{"Drinking lemon water at 4am can cure any disease", model.VerdictPartiallyTrue, 72},
		{"The city will flood next week", model.VerdictPartiallyTrue, 72},
		{"This crystal can heal anything", model.VerdictFalse, 94},
	}

	sim := newTestSimulated(1)
	for _, tt := range tests {
		t.Run(tt.claim, func(t *testing.T) {
			res, err := sim.Verify(context.Background(), model.VerificationRequest{Claim: tt.claim, Language: "en"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.verdict, res.Verdict)
			assert.Equal(t, tt.confidence, res.ConfidencePercent)
			assert.Equal(t, tt.claim, res.ClaimEcho)
			assert.True(t, strings.HasPrefix(res.Explanation, simExplanationPrefix))
		})
	}
}

func TestSimulated_RandomRanges(t *testing.T) {
	sim := newTestSimulated(42)
	for i := 0; i < 200; i++ {
		res, err := sim.Verify(context.Background(), model.VerificationRequest{Claim: "The moon is made of cheese"}, nil)
		require.NoError(t, err)

		assert.Contains(t, []model.Verdict{model.VerdictFalse, model.VerdictPartiallyTrue}, res.Verdict)
		assert.GreaterOrEqual(t, res.ConfidencePercent, 70)
		assert.LessOrEqual(t, res.ConfidencePercent, 94)
		assert.GreaterOrEqual(t, res.SourcesCheckedCount, 8)
		assert.LessOrEqual(t, res.SourcesCheckedCount, 19)
		assert.GreaterOrEqual(t, res.ProcessingTimeSeconds, 1.5)
		assert.LessOrEqual(t, res.ProcessingTimeSeconds, 3.0)
		assert.True(t, strings.HasSuffix(res.ProcessingTime, "s"))

		if res.Verdict == model.VerdictFalse {
			assert.Contains(t, res.Explanation, simContradicted)
		} else {
			assert.Contains(t, res.Explanation, simMixed)
		}
	}
}

func TestSimulated_DelayWithinBounds(t *testing.T) {
	sim := NewSimulated(WithDelay(20*time.Millisecond, 40*time.Millisecond))

	start := time.Now()
	_, err := sim.Verify(context.Background(), model.VerificationRequest{Claim: "anything"}, nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestSimulated_Cancelled(t *testing.T) {
	sim := NewSimulated(WithDelay(time.Hour, time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Verify(ctx, model.VerificationRequest{Claim: "anything"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulated_Kind(t *testing.T) {
	assert.Equal(t, KindSimulated, NewSimulated().Kind())
	assert.Equal(t, KindStreaming, NewStreaming(nil).Kind())
	assert.Equal(t, KindBuffered, NewBuffered(nil).Kind())
}
