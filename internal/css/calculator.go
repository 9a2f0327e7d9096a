package css

import (
	"math"

	"envision/internal/lexicon"
	"envision/internal/textutil"
)

// Channel weights of the calculated score. They sum to 1.
const (
	WeightLengthCoverage = 0.20
	WeightSpecificity    = 0.25
	WeightRichness       = 0.20
	WeightActionIdentity = 0.20
	WeightCoherence      = 0.15
)

// Blend between the deterministic score and the provider's proposal.
const (
	CalculatedShare = 0.7
	ProposedShare   = 0.3
)

const (
	targetWordCount         = 50
	specificityTarget       = 5
	richnessTarget          = 6
	actionTarget            = 4
	hedgePenalty            = 0.1
	contradictionPenalty    = 0.2
	vaguenessPenalty        = 0.1
	lengthCoverageHalfShare = 0.5
)

// Components are the unweighted channel scores, each in [0,1].
type Components struct {
	LengthScore    float64 `json:"length_score"`
	CoverageScore  float64 `json:"coverage_score"`
	LengthCoverage float64 `json:"length_coverage"`
	Specificity    float64 `json:"specificity"`
	Richness       float64 `json:"richness"`
	ActionIdentity float64 `json:"action_identity"`
	Coherence      float64 `json:"coherence"`
}

// Subscores are the channel scores multiplied by their own weight. They are
// diagnostic only: they sum to CalculatedCSS, not to the blended CSS.
type Subscores struct {
	LengthCoverage float64 `json:"length_coverage"`
	Specificity    float64 `json:"specificity"`
	Richness       float64 `json:"richness"`
	ActionIdentity float64 `json:"action_identity"`
	Coherence      float64 `json:"coherence"`
}

// Result is the full outcome of scoring one answer for one category.
type Result struct {
	Category      lexicon.Category `json:"category"`
	CSS           float64          `json:"css"`
	RawCSS        float64          `json:"raw_css"`
	CalculatedCSS float64          `json:"calculated_css"`
	ProposedCSS   float64          `json:"proposed_css"`
	WordCount     int              `json:"word_count"`
	CoverageHits  []string         `json:"coverage_hits"`
	Required      int              `json:"required_coverage"`
	Components    Components       `json:"components"`
	Subscores     Subscores        `json:"subscores"`
	Band          Band             `json:"decision_band"`
}

// CoverageMet reports whether the answer hit enough slots for its category.
func (r Result) CoverageMet() bool {
	return r.Required > 0 && len(r.CoverageHits) >= r.Required
}

// Calculate combines the analysis signals of answer into the context
// sufficiency score for category. Coverage hits that do not belong to the
// category are ignored. The result is deterministic for identical inputs.
func Calculate(answer string, analysis Analysis, category lexicon.Category) Result {
	words := textutil.WordCount(answer)
	hits := lexicon.FilterSlots(category, analysis.CoverageHits)
	required := lexicon.RequiredCoverage(category)

	lengthScore := math.Min(float64(words)/targetWordCount, 1.0)
	coverageScore := 0.0
	if required > 0 {
		coverageScore = math.Min(float64(len(hits))/float64(required), 1.0)
	}
	lengthCoverage := lengthCoverageHalfShare*lengthScore + lengthCoverageHalfShare*coverageScore

	specificity := math.Min(float64(
		len(analysis.Specificity.Numbers)+
			len(analysis.Specificity.Names)+
			len(analysis.Specificity.Measurables))/specificityTarget, 1.0)

	richness := math.Min(float64(
		len(analysis.Richness.Sensory)+
			len(analysis.Richness.Emotions)+
			len(analysis.Richness.BodySensations))/richnessTarget, 1.0)

	action := math.Min(float64(
		len(analysis.ActionIdentity.IAmStatements)+
			len(analysis.ActionIdentity.FutureActions)+
			len(analysis.ActionIdentity.Behaviors))/actionTarget, 1.0)

	penalty := hedgePenalty*float64(len(analysis.Coherence.Hedges)) +
		contradictionPenalty*float64(len(analysis.Coherence.Contradictions)) +
		vaguenessPenalty*float64(len(analysis.Coherence.Vagueness))
	coherence := math.Max(1-penalty, 0)

	calculated := WeightLengthCoverage*lengthCoverage +
		WeightSpecificity*specificity +
		WeightRichness*richness +
		WeightActionIdentity*action +
		WeightCoherence*coherence

	proposed := Clamp01(analysis.ProposedCSS)
	raw := Clamp01(CalculatedShare*calculated + ProposedShare*proposed)
	final := Round2(raw)

	return Result{
		Category:      category,
		CSS:           final,
		RawCSS:        raw,
		CalculatedCSS: calculated,
		ProposedCSS:   proposed,
		WordCount:     words,
		CoverageHits:  hits,
		Required:      required,
		Components: Components{
			LengthScore:    lengthScore,
			CoverageScore:  coverageScore,
			LengthCoverage: lengthCoverage,
			Specificity:    specificity,
			Richness:       richness,
			ActionIdentity: action,
			Coherence:      coherence,
		},
		Subscores: Subscores{
			LengthCoverage: lengthCoverage * WeightLengthCoverage,
			Specificity:    specificity * WeightSpecificity,
			Richness:       richness * WeightRichness,
			ActionIdentity: action * WeightActionIdentity,
			Coherence:      coherence * WeightCoherence,
		},
		Band: Classify(final),
	}
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
