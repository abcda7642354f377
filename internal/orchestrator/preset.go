package orchestrator

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/capcheck/internal/model"
)

//go:embed presets.yaml
var presetsYAML []byte

const (
	cannedTimeoutExplanation = "This result is from our pre-verified cache. The live API is currently slow or unavailable."
	cannedErrorExplanation   = "This result is from our pre-verified cache due to an API error."
)

// Preset is an example claim with a precomputed verdict.
type Preset struct {
	ID         string        `yaml:"id"`
	Claim      string        `yaml:"claim"`
	Verdict    model.Verdict `yaml:"verdict"`
	Confidence int           `yaml:"confidence"`
	Sources    int           `yaml:"sources"`
	Time       string        `yaml:"time"`
}

var (
	presetsOnce sync.Once
	presets     []Preset
	presetsErr  error
)

// Presets returns the built-in example claims.
func Presets() ([]Preset, error) {
	presetsOnce.Do(func() {
		presets, presetsErr = ParsePresets(presetsYAML)
	})
	return presets, presetsErr
}

// ParsePresets decodes a preset catalogue.
func ParsePresets(data []byte) ([]Preset, error) {
	var out []Preset
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "orchestrator: parse presets")
	}
	for i, p := range out {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Claim) == "" {
			return nil, eris.Errorf("orchestrator: preset %d is missing id or claim", i)
		}
	}
	return out, nil
}

// FindPreset looks a preset up by id.
func FindPreset(id string) (Preset, bool) {
	all, err := Presets()
	if err != nil {
		return Preset{}, false
	}
	for _, p := range all {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// canned builds the precomputed result with the given explanation.
func (p Preset) canned(explanation string) *model.VerificationResult {
	secs, _ := model.ParseProcessingTime(p.Time)
	return &model.VerificationResult{
		ClaimEcho:             p.Claim,
		Verdict:               model.ParseVerdict(string(p.Verdict)),
		ConfidencePercent:     model.ClampConfidence(p.Confidence),
		SourcesCheckedCount:   p.Sources,
		ProcessingTimeSeconds: secs,
		ProcessingTime:        model.FormatProcessingTime(secs),
		Explanation:           explanation,
		Cached:                true,
	}
}
