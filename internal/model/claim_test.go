package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerificationRequest(t *testing.T) {
	t.Parallel()

	req, err := NewVerificationRequest("  5G towers spread viruses \n", "", true)
	require.NoError(t, err)
	assert.Equal(t, "5G towers spread viruses", req.Claim)
	assert.Equal(t, DefaultLanguage, req.Language)
	assert.True(t, req.SkipCache)
}

func TestNewVerificationRequest_Empty(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := NewVerificationRequest(raw, "en", false)
		assert.True(t, errors.Is(err, ErrEmptyClaim), "input %q", raw)
	}
}

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw       string
		want      Verdict
		canonical Verdict
	}{
		{"true", VerdictTrue, VerdictTrue},
		{"false", VerdictFalse, VerdictFalse},
		{"mostly_false", "MOSTLY_FALSE", VerdictMostlyFalse},
		{"Mixed", VerdictMixed, VerdictPartiallyTrue},
		{"unverifiable", VerdictUnverifiable, VerdictUnverified},
		{"", VerdictUnverified, VerdictUnverified},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			v := ParseVerdict(tt.raw)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.canonical, v.Canonical())
		})
	}
}

func TestVerdictLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "THAT'S CAP 🧢", VerdictFalse.Label())
	assert.Equal(t, "KINDA TRUE 🤷", VerdictMixed.Label())
	assert.Equal(t, "SATIRE", Verdict("SATIRE").Label())
}
