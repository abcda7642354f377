// Package progress tracks the stages of one verification and its elapsed
// time.
package progress

import "strings"

// Stage is one step of a verification, in fixed order.
type Stage int

const (
	StageReading Stage = iota
	StageSearching
	StageCrossReferencing
	StageVerdict
)

// penultimate is the furthest stage reachable before settlement.
const penultimate = StageCrossReferencing

var stageNames = [...]string{"reading", "searching", "cross-referencing", "verdict"}

func (s Stage) String() string {
	if s < StageReading || s > StageVerdict {
		return "unknown"
	}
	return stageNames[s]
}

// Stages returns all stages in order.
func Stages() []Stage {
	return []Stage{StageReading, StageSearching, StageCrossReferencing, StageVerdict}
}

// stageLookup maps service step identifiers onto stages. Terminal step names
// map to the verdict stage but are held at the penultimate stage until the
// verification settles.
var stageLookup = map[string]Stage{
	"reading":            StageReading,
	"extracting":         StageReading,
	"generating_queries": StageReading,
	"analyzing":          StageReading,
	"searching":          StageSearching,
	"cross-referencing":  StageCrossReferencing,
	"cross_referencing":  StageCrossReferencing,
	"cross-ref":          StageCrossReferencing,
	"synthesizing":       StageCrossReferencing,
	"explaining":         StageCrossReferencing,
	"verdict":            StageVerdict,
	"complete":           StageVerdict,
}

// LookupStage maps a step identifier to a stage.
func LookupStage(id string) (Stage, bool) {
	s, ok := stageLookup[strings.ToLower(strings.TrimSpace(id))]
	return s, ok
}
