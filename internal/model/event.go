package model

// EventKind tags a ProgressEvent variant.
type EventKind string

const (
	EventStage    EventKind = "stage"
	EventSource   EventKind = "source"
	EventTerminal EventKind = "terminal"
)

// SourceStatus is the state of a single source lookup.
type SourceStatus string

const (
	SourceSearching SourceStatus = "searching"
	SourceFound     SourceStatus = "found"
)

// ProgressEvent is emitted by transports while a verification runs. Only the
// fields belonging to Kind are meaningful.
type ProgressEvent struct {
	Kind EventKind `json:"kind"`

	// Stage
	StageID string `json:"stage_id,omitempty"`
	Message string `json:"message,omitempty"`

	// Source activity
	Source     string       `json:"source,omitempty"`
	Status     SourceStatus `json:"status,omitempty"`
	FoundCount int          `json:"found_count,omitempty"`

	// Terminal
	Result *VerificationResult `json:"result,omitempty"`
	Reason string              `json:"reason,omitempty"`
}

// StageEvent advances the progress stage.
func StageEvent(stageID, message string) ProgressEvent {
	return ProgressEvent{Kind: EventStage, StageID: stageID, Message: message}
}

// SourceActivityEvent reports a source being searched or yielding results.
func SourceActivityEvent(source string, status SourceStatus, found int) ProgressEvent {
	return ProgressEvent{Kind: EventSource, Source: source, Status: status, FoundCount: found}
}

// SuccessEvent settles a verification with a result.
func SuccessEvent(res *VerificationResult) ProgressEvent {
	return ProgressEvent{Kind: EventTerminal, Result: res}
}

// FailureEvent settles a verification with a failure reason.
func FailureEvent(reason string) ProgressEvent {
	return ProgressEvent{Kind: EventTerminal, Reason: reason}
}

// Succeeded reports whether a terminal event carries a result.
func (e ProgressEvent) Succeeded() bool {
	return e.Kind == EventTerminal && e.Result != nil
}

// ProgressFunc receives progress events. It is called from the goroutine
// running the verification and must not block.
type ProgressFunc func(ProgressEvent)

// Emit calls fn if it is non-nil.
func (fn ProgressFunc) Emit(e ProgressEvent) {
	if fn != nil {
		fn(e)
	}
}
