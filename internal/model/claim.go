package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultLanguage is used when a request does not name one.
const DefaultLanguage = "en"

// ErrEmptyClaim is returned when a claim is empty or whitespace-only.
var ErrEmptyClaim = eris.New("claim is required")

// NormalizeClaim trims surrounding whitespace and rejects empty claims.
func NormalizeClaim(raw string) (string, error) {
	claim := strings.TrimSpace(raw)
	if claim == "" {
		return "", ErrEmptyClaim
	}
	return claim, nil
}

// VerificationRequest is built once per user-initiated check and passed by
// value to every transport, so a fallback always carries the same payload.
type VerificationRequest struct {
	Claim     string `json:"claim"`
	Language  string `json:"language"`
	SkipCache bool   `json:"skip_cache"`
}

// NewVerificationRequest validates the claim and fills in the default language.
func NewVerificationRequest(claim, language string, skipCache bool) (VerificationRequest, error) {
	c, err := NormalizeClaim(claim)
	if err != nil {
		return VerificationRequest{}, err
	}
	lang := strings.TrimSpace(language)
	if lang == "" {
		lang = DefaultLanguage
	}
	return VerificationRequest{
		Claim:     c,
		Language:  lang,
		SkipCache: skipCache,
	}, nil
}
