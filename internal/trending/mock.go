package trending

import (
	"time"

	"github.com/sells-group/capcheck/pkg/checkapi"
)

// Categories lists the trending categories.
var Categories = []string{"politics", "health", "tech", "climate", "finance", "social"}

type mockClaim struct {
	checkapi.TrendingClaim
	age time.Duration
}

var mockClaims = []mockClaim{
	{checkapi.TrendingClaim{ID: "1", Claim: "NASA confirms asteroid will hit Earth in 2025", Verdict: "FALSE", Confidence: 98, Category: "tech", CheckedCount: 2847}, 30 * time.Minute},
	{checkapi.TrendingClaim{ID: "2", Claim: "New study shows coffee extends lifespan by 10 years", Verdict: "MOSTLY_FALSE", Confidence: 89, Category: "health", CheckedCount: 1923}, 45 * time.Minute},
	{checkapi.TrendingClaim{ID: "3", Claim: "Government announces free WiFi for all citizens", Verdict: "UNVERIFIABLE", Confidence: 45, Category: "politics", CheckedCount: 1456}, 60 * time.Minute},
	{checkapi.TrendingClaim{ID: "4", Claim: "Electric vehicles cause more pollution than diesel cars", Verdict: "FALSE", Confidence: 94, Category: "climate", CheckedCount: 3201}, 90 * time.Minute},
	{checkapi.TrendingClaim{ID: "5", Claim: "AI will replace 50% of jobs by 2030", Verdict: "MIXED", Confidence: 62, Category: "tech", CheckedCount: 2105}, 120 * time.Minute},
	{checkapi.TrendingClaim{ID: "6", Claim: "Drinking 8 glasses of water daily is essential for health", Verdict: "MOSTLY_TRUE", Confidence: 78, Category: "health", CheckedCount: 1678}, 150 * time.Minute},
}

// Mock returns the static fallback listing for category ("all" or empty for
// every category), with check times relative to now.
func Mock(category string, now time.Time) *checkapi.TrendingResponse {
	claims := make([]checkapi.TrendingClaim, 0, len(mockClaims))
	for _, m := range mockClaims {
		if !matches(category, m.Category) {
			continue
		}
		c := m.TrendingClaim
		c.CheckedAt = now.Add(-m.age).UTC()
		claims = append(claims, c)
	}
	return &checkapi.TrendingResponse{
		Claims:     claims,
		Categories: append([]string(nil), Categories...),
		Total:      len(claims),
	}
}

func matches(filter, category string) bool {
	return filter == "" || filter == AllCategories || filter == category
}
