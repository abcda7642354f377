package checkapi

import (
	"fmt"
	"time"
)

// CheckRequest is the body of POST /api/check and the query of the stream.
type CheckRequest struct {
	Claim     string `json:"claim"`
	Language  string `json:"language"`
	SkipCache bool   `json:"skip_cache"`
}

// Evidence is one evidence record as the service returns it.
type Evidence struct {
	Source        string   `json:"source"`
	Snippet       string   `json:"snippet"`
	URL           string   `json:"url,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Reliability   *float64 `json:"reliability,omitempty"`
}

// CheckResponse is the success envelope of POST /api/check.
type CheckResponse struct {
	Success bool       `json:"success"`
	Data    *CheckData `json:"data"`
}

// CheckData is the gateway-shaped result: verdict already upper-cased,
// confidence already a percentage and time already formatted.
type CheckData struct {
	ClaimID          string     `json:"claim_id"`
	Claim            string     `json:"claim"`
	Verdict          string     `json:"verdict"`
	Confidence       float64    `json:"confidence"`
	Severity         string     `json:"severity,omitempty"`
	Explanation      string     `json:"explanation,omitempty"`
	ExplanationHindi string     `json:"explanation_hindi,omitempty"`
	Correction       string     `json:"correction,omitempty"`
	Sources          int        `json:"sources"`
	Evidence         []Evidence `json:"evidence"`
	Time             string     `json:"time"`
	Cached           bool       `json:"cached"`
}

// RawResult is the verification backend's own result shape, carried inside
// stream "complete" events.
type RawResult struct {
	ClaimID               string     `json:"claim_id"`
	ClaimText             string     `json:"claim_text"`
	Verdict               string     `json:"verdict"`
	Confidence            float64    `json:"confidence"`
	Severity              string     `json:"severity,omitempty"`
	Explanation           string     `json:"explanation,omitempty"`
	ExplanationHindi      string     `json:"explanation_hindi,omitempty"`
	Correction            string     `json:"correction,omitempty"`
	SourcesChecked        int        `json:"sources_checked"`
	Evidence              []Evidence `json:"evidence,omitempty"`
	ProcessingTimeSeconds float64    `json:"processing_time_seconds"`
	Cached                bool       `json:"cached"`
}

// ErrorResponse is the body of a non-2xx response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Message  string `json:"message,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// HealthResponse is the body of GET /api/check.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend bool   `json:"backend"`
	Message string `json:"message,omitempty"`
}

// Stream event types.
const (
	EventStep     = "step"
	EventSource   = "source"
	EventComplete = "complete"
	EventError    = "error"
)

// StreamEvent is one JSON event from GET /api/check/stream.
type StreamEvent struct {
	Type    string     `json:"type"`
	Step    string     `json:"step,omitempty"`
	Message string     `json:"message,omitempty"`
	Status  string     `json:"status,omitempty"`
	Source  string     `json:"source,omitempty"`
	Count   int        `json:"count,omitempty"`
	Result  *RawResult `json:"result,omitempty"`
}

// TrendingClaim is one row of GET /api/trending.
type TrendingClaim struct {
	ID           string    `json:"id"`
	Claim        string    `json:"claim"`
	Verdict      string    `json:"verdict"`
	Confidence   int       `json:"confidence"`
	Category     string    `json:"category"`
	CheckedCount int       `json:"checked_count"`
	CheckedAt    time.Time `json:"checked_at"`
}

// TrendingResponse is the body of GET /api/trending.
type TrendingResponse struct {
	Claims     []TrendingClaim `json:"claims"`
	Categories []string        `json:"categories"`
	Total      int             `json:"total"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       ErrorResponse
}

func (e *APIError) Error() string {
	msg := e.Body.Error
	if msg == "" {
		msg = e.Body.Message
	}
	return fmt.Sprintf("checkapi: unexpected status %d: %s", e.StatusCode, msg)
}

// Fallback reports whether the response asked the caller to fall back to
// another transport.
func (e *APIError) Fallback() bool {
	return e.Body.Fallback
}
