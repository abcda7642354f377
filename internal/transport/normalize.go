package transport

import (
	"github.com/sells-group/capcheck/internal/model"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

// FromRaw normalizes a raw backend result carried by a stream "complete"
// event. Confidence arrives as a fraction and is scaled exactly once.
func FromRaw(raw *checkapi.RawResult, claim string) *model.VerificationResult {
	echo := raw.ClaimText
	if echo == "" {
		echo = claim
	}
	return &model.VerificationResult{
		ClaimID:               raw.ClaimID,
		ClaimEcho:             echo,
		Verdict:               model.ParseVerdict(raw.Verdict),
		ConfidencePercent:     model.NormalizeConfidence(raw.Confidence),
		SourcesCheckedCount:   max(raw.SourcesChecked, 0),
		ProcessingTimeSeconds: raw.ProcessingTimeSeconds,
		ProcessingTime:        model.FormatProcessingTime(raw.ProcessingTimeSeconds),
		Severity:              raw.Severity,
		Explanation:           raw.Explanation,
		ExplanationAlt:        raw.ExplanationHindi,
		Correction:            raw.Correction,
		Evidence:              evidence(raw.Evidence),
		Cached:                raw.Cached,
	}
}

// FromData normalizes the gateway-shaped buffered response. Its confidence
// is already a percentage, so it is only rounded and clamped.
func FromData(data *checkapi.CheckData, claim string) *model.VerificationResult {
	echo := data.Claim
	if echo == "" {
		echo = claim
	}
	secs, ok := model.ParseProcessingTime(data.Time)
	display := data.Time
	if !ok {
		display = model.FormatProcessingTime(0)
	}
	return &model.VerificationResult{
		ClaimID:               data.ClaimID,
		ClaimEcho:             echo,
		Verdict:               model.ParseVerdict(data.Verdict),
		ConfidencePercent:     model.PercentFromFloat(data.Confidence),
		SourcesCheckedCount:   max(data.Sources, 0),
		ProcessingTimeSeconds: secs,
		ProcessingTime:        display,
		Severity:              data.Severity,
		Explanation:           data.Explanation,
		ExplanationAlt:        data.ExplanationHindi,
		Correction:            data.Correction,
		Evidence:              evidence(data.Evidence),
		Cached:                data.Cached,
	}
}

func evidence(in []checkapi.Evidence) []model.EvidenceItem {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.EvidenceItem, len(in))
	for i, e := range in {
		out[i] = model.EvidenceItem{
			Source:        e.Source,
			Snippet:       e.Snippet,
			URL:           e.URL,
			PublishedDate: e.PublishedDate,
			Reliability:   e.Reliability,
		}
	}
	return out
}
