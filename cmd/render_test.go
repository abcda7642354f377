package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/capcheck/internal/gamification"
	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/internal/orchestrator"
	"github.com/sells-group/capcheck/internal/progress"
	"github.com/sells-group/capcheck/internal/transport"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

func TestFormatOutcome(t *testing.T) {
	high := 0.9
	out := &orchestrator.Outcome{
		Transport: transport.KindStreaming,
		Result: &model.VerificationResult{
			ClaimEcho:           "The moon is made of cheese",
			Verdict:             model.VerdictFalse,
			ConfidencePercent:   97,
			SourcesCheckedCount: 12,
			ProcessingTime:      "4.2s",
			Explanation:         "Lunar samples are rock.",
			Correction:          "The moon is made of rock.",
			Evidence: []model.EvidenceItem{
				{Source: "NASA", Snippet: "Apollo samples", URL: "https://nasa.gov", Reliability: &high},
				{Source: "Blog"},
			},
			Cached: true,
		},
	}

	var buf bytes.Buffer
	formatOutcome(&buf, out)
	s := buf.String()

	assert.Contains(t, s, "THAT'S CAP")
	assert.Contains(t, s, "The moon is made of cheese")
	assert.Contains(t, s, "FALSE (97% confidence)")
	assert.Contains(t, s, "12 checked in 4.2s")
	assert.Contains(t, s, "streaming (cached)")
	assert.Contains(t, s, "Correction: The moon is made of rock.")
	assert.Contains(t, s, "1. NASA [High]")
	assert.Contains(t, s, "2. Blog\n")
	assert.NotContains(t, s, "offline analysis")
}

func TestFormatOutcome_Simulated(t *testing.T) {
	var buf bytes.Buffer
	formatOutcome(&buf, &orchestrator.Outcome{
		Transport: transport.KindSimulated,
		Result:    &model.VerificationResult{ClaimEcho: "x", Verdict: model.VerdictPartiallyTrue, ProcessingTime: "2.0s"},
	})
	assert.Contains(t, buf.String(), "offline analysis")
}

func TestFormatHistory(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 15, 0, 0, time.Local)
	var buf bytes.Buffer
	formatHistory(&buf, []model.HistoryEntry{
		{Claim: "Newest claim", Verdict: model.VerdictTrue, ConfidencePercent: 88, CreatedAt: now},
		{Claim: strings.Repeat("long ", 20), Verdict: model.VerdictFalse, ConfidencePercent: 91, CreatedAt: now.Add(-time.Hour)},
	})
	s := buf.String()

	assert.Contains(t, s, "VERDICT")
	assert.Contains(t, s, "Newest claim")
	assert.Contains(t, s, "88%")
	assert.Contains(t, s, "2026-03-02 09:15")
	assert.Contains(t, s, "…")
	assert.Less(t, strings.Index(s, "Newest claim"), strings.Index(s, "long"))
}

func TestFormatTrending(t *testing.T) {
	now := time.Now()
	var buf bytes.Buffer
	formatTrending(&buf, &checkapi.TrendingResponse{
		Claims: []checkapi.TrendingClaim{
			{Claim: "Coffee extends lifespan", Verdict: "MOSTLY_FALSE", Confidence: 89, Category: "health", CheckedCount: 1923, CheckedAt: now.Add(-45 * time.Minute)},
		},
		Categories: []string{"health", "tech"},
		Total:      1,
	}, now)
	s := buf.String()

	assert.Contains(t, s, "Coffee extends lifespan")
	assert.Contains(t, s, "45m ago")
	assert.Contains(t, s, "1 claims. Categories: health, tech")
}

func TestFormatBadges(t *testing.T) {
	var buf bytes.Buffer
	formatBadges(&buf, gamification.State{ClaimsChecked: 12, UnlockedBadges: []string{"first_check", "myth_buster"}, FactScore: 111},
		gamification.Badges[:2], gamification.Badges[2], true, 13.3)
	s := buf.String()

	assert.Contains(t, s, "Claims checked: 12")
	assert.Contains(t, s, "Fact score:     111")
	assert.Contains(t, s, "🎯")
	assert.Contains(t, s, "Next: 🔍 Truth Seeker (13%)")
}

func TestAgo(t *testing.T) {
	assert.Equal(t, "just now", ago(10*time.Second))
	assert.Equal(t, "30m ago", ago(30*time.Minute))
	assert.Equal(t, "2h ago", ago(150*time.Minute))
	assert.Equal(t, "3d ago", ago(72*time.Hour))
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)

	p.OnChange(progress.Snapshot{Stage: progress.StageReading})
	p.OnChange(progress.Snapshot{Stage: progress.StageReading, ElapsedSeconds: 1})
	p.OnChange(progress.Snapshot{Stage: progress.StageSearching, Message: "Searching sources", ElapsedSeconds: 2,
		Sources: []progress.SourceActivity{{Source: "Reuters", Status: model.SourceSearching}}})
	p.OnChange(progress.Snapshot{Stage: progress.StageSearching, Message: "Searching sources", ElapsedSeconds: 3,
		Sources: []progress.SourceActivity{{Source: "Reuters", Status: model.SourceFound, Count: 4}}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "reading")
	assert.Contains(t, lines[1], "searching: Searching sources")
	assert.Contains(t, lines[2], "… Reuters")
	assert.Contains(t, lines[3], "✓ Reuters (4 found)")

	p.Reset()
	buf.Reset()
	p.OnChange(progress.Snapshot{Stage: progress.StageReading})
	assert.Contains(t, buf.String(), "reading")
}

func TestFormatPresets(t *testing.T) {
	var buf bytes.Buffer
	formatPresets(&buf, []orchestrator.Preset{
		{ID: "1", Claim: "First example"},
		{ID: "2", Claim: "Second example"},
	})
	s := buf.String()

	assert.Contains(t, s, "ID")
	assert.Contains(t, s, "First example")
	assert.Contains(t, s, "Second example")
}
