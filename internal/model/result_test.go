package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"fraction", 0.97, 97},
		{"fraction rounds up", 0.956, 96},
		{"fraction rounds down", 0.954, 95},
		{"one is full", 1.0, 100},
		{"zero", 0, 0},
		{"negative", -0.2, 0},
		{"already percent", 87, 87},
		{"percent over range", 140, 100},
		{"huge finite", 1e20, 100},
		{"infinite", math.Inf(1), 100},
		{"nan", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeConfidence(tt.in))
		})
	}
}

func TestPercentFromFloat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 87, PercentFromFloat(87.4))
	assert.Equal(t, 0, PercentFromFloat(0.4))
	assert.Equal(t, 100, PercentFromFloat(1e300))
	assert.Equal(t, 0, PercentFromFloat(-1e300))
	assert.Equal(t, 0, PercentFromFloat(math.NaN()))
}

func TestNormalizeConfidence_NotRescaledTwice(t *testing.T) {
	t.Parallel()

	once := NormalizeConfidence(0.97)
	assert.Equal(t, 97, once)
	assert.Equal(t, 97, NormalizeConfidence(float64(once)))
}

func TestFormatProcessingTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12.4s", FormatProcessingTime(12.43))
	assert.Equal(t, "3.0s", FormatProcessingTime(3))
	assert.Equal(t, "0.0s", FormatProcessingTime(-1))
}

func TestParseProcessingTime(t *testing.T) {
	t.Parallel()

	got, ok := ParseProcessingTime("14.8s")
	assert.True(t, ok)
	assert.InDelta(t, 14.8, got, 0.0001)

	_, ok = ParseProcessingTime("")
	assert.False(t, ok)
	_, ok = ParseProcessingTime("fast")
	assert.False(t, ok)
}

func TestEvidenceItem_ReliabilityLabel(t *testing.T) {
	t.Parallel()

	score := func(f float64) *float64 { return &f }

	assert.Equal(t, "High", EvidenceItem{Reliability: score(0.8)}.ReliabilityLabel())
	assert.Equal(t, "Medium", EvidenceItem{Reliability: score(0.65)}.ReliabilityLabel())
	assert.Equal(t, "Low", EvidenceItem{Reliability: score(0.1)}.ReliabilityLabel())
	assert.Empty(t, EvidenceItem{}.ReliabilityLabel())
}
