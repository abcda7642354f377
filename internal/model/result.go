package model

import (
	"math"
	"strconv"
	"strings"
)

// EvidenceItem is one supporting source record. Items keep the order the
// service returned them in.
type EvidenceItem struct {
	Source        string   `json:"source"`
	Snippet       string   `json:"snippet"`
	URL           string   `json:"url,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Reliability   *float64 `json:"reliability,omitempty"`
}

// ReliabilityLabel buckets the item's reliability score. Items without a
// score have no label.
func (e EvidenceItem) ReliabilityLabel() string {
	if e.Reliability == nil {
		return ""
	}
	switch r := *e.Reliability; {
	case r >= 0.8:
		return "High"
	case r >= 0.6:
		return "Medium"
	default:
		return "Low"
	}
}

// VerificationResult is the normalized outcome produced by every transport.
type VerificationResult struct {
	ClaimID               string         `json:"claim_id,omitempty"`
	ClaimEcho             string         `json:"claim"`
	Verdict               Verdict        `json:"verdict"`
	ConfidencePercent     int            `json:"confidence"`
	SourcesCheckedCount   int            `json:"sources"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds"`
	ProcessingTime        string         `json:"time"`
	Severity              string         `json:"severity,omitempty"`
	Explanation           string         `json:"explanation,omitempty"`
	ExplanationAlt        string         `json:"explanation_hindi,omitempty"`
	Correction            string         `json:"correction,omitempty"`
	Evidence              []EvidenceItem `json:"evidence,omitempty"`
	Cached                bool           `json:"cached,omitempty"`
}

// NormalizeConfidence converts an upstream confidence into an integer
// percentage in [0,100]. Values in [0,1] are fractions and are scaled by 100;
// anything larger is already a percentage. Rounding happens exactly once.
func NormalizeConfidence(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v <= 1 {
		v *= 100
	}
	return PercentFromFloat(v)
}

// PercentFromFloat rounds an already-percent value to an integer in [0,100].
// The float is bounded before conversion so out-of-range input cannot
// overflow int.
func PercentFromFloat(v float64) int {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 100:
		return 100
	}
	return int(math.Round(v))
}

// ClampConfidence bounds an integer percentage to [0,100].
func ClampConfidence(pct int) int {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// FormatProcessingTime renders seconds with one decimal place and a trailing
// unit marker, e.g. 12.43 -> "12.4s".
func FormatProcessingTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	return strconv.FormatFloat(seconds, 'f', 1, 64) + "s"
}

// ParseProcessingTime reads a "<n>.<d>s" string back into seconds.
func ParseProcessingTime(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "s")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}
