package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Verdict is the categorical outcome of a claim verification. Values are
// stored upper-cased exactly as the service reports them.
type Verdict string

const (
	VerdictTrue          Verdict = "TRUE"
	VerdictFalse         Verdict = "FALSE"
	VerdictMostlyTrue    Verdict = "MOSTLY TRUE"
	VerdictMostlyFalse   Verdict = "MOSTLY FALSE"
	VerdictPartiallyTrue Verdict = "PARTIALLY TRUE"
	VerdictMixed         Verdict = "MIXED"
	VerdictUnverified    Verdict = "UNVERIFIED"
	VerdictUnverifiable  Verdict = "UNVERIFIABLE"
)

var upper = cases.Upper(language.Und)

// ParseVerdict upper-cases a raw upstream verdict. Unknown values are kept
// as-is (upper-cased) rather than rejected; an empty value is UNVERIFIED.
func ParseVerdict(raw string) Verdict {
	v := strings.TrimSpace(raw)
	if v == "" {
		return VerdictUnverified
	}
	return Verdict(upper.String(v))
}

// Canonical folds spelling variants onto the display set: underscores become
// spaces, MIXED reads as PARTIALLY TRUE and UNVERIFIABLE as UNVERIFIED.
func (v Verdict) Canonical() Verdict {
	c := Verdict(strings.ReplaceAll(string(v), "_", " "))
	switch c {
	case VerdictMixed:
		return VerdictPartiallyTrue
	case VerdictUnverifiable:
		return VerdictUnverified
	}
	return c
}

// Label returns the product's display label for the verdict.
func (v Verdict) Label() string {
	switch v.Canonical() {
	case VerdictTrue:
		return "NO CAP ✅"
	case VerdictFalse:
		return "THAT'S CAP 🧢"
	case VerdictMostlyFalse:
		return "MOSTLY CAP 🧢"
	case VerdictPartiallyTrue:
		return "KINDA TRUE 🤷"
	case VerdictMostlyTrue:
		return "LOWKEY TRUE ✅"
	case VerdictUnverified:
		return "CAN'T TELL 🤔"
	default:
		return string(v)
	}
}
