package model

import "time"

// HistoryEntry is one previously verified claim.
type HistoryEntry struct {
	ID                string    `json:"id"`
	Claim             string    `json:"claim"`
	Verdict           Verdict   `json:"verdict"`
	ConfidencePercent int       `json:"confidence"`
	CreatedAt         time.Time `json:"timestamp"`
}
