package css

import "envision/internal/lexicon"

// Signal names the scoring channel an answer is weakest on.
type Signal string

const (
	SignalLength         Signal = "length"
	SignalSpecificity    Signal = "specificity"
	SignalRichness       Signal = "richness"
	SignalActionIdentity Signal = "actionIdentity"
	SignalCoherence      Signal = "coherence"
)

var knownSignals = map[Signal]struct{}{
	SignalLength:         {},
	SignalSpecificity:    {},
	SignalRichness:       {},
	SignalActionIdentity: {},
	SignalCoherence:      {},
}

// Valid reports whether s is one of the five scoring channels.
func (s Signal) Valid() bool {
	_, ok := knownSignals[s]
	return ok
}

// Specificity lists the concrete details found in an answer.
type Specificity struct {
	Numbers     []string `json:"numbers"`
	Names       []string `json:"names"`
	Measurables []string `json:"measurables"`
}

// Richness lists sensory and emotional language found in an answer.
type Richness struct {
	Sensory        []string `json:"sensory"`
	Emotions       []string `json:"emotions"`
	BodySensations []string `json:"body_sensations"`
}

// ActionIdentity lists commitments and self-descriptions found in an answer.
type ActionIdentity struct {
	IAmStatements []string `json:"i_am_statements"`
	FutureActions []string `json:"future_actions"`
	Behaviors     []string `json:"behaviors"`
}

// Coherence lists the issues that lower an answer's coherence.
type Coherence struct {
	Hedges         []string `json:"hedges"`
	Contradictions []string `json:"contradictions"`
	Vagueness      []string `json:"vagueness"`
}

// Analysis is the structured signal set extracted from one answer. It is
// produced per response and never persisted.
type Analysis struct {
	CoverageHits        []string           `json:"coverage_hits"`
	Specificity         Specificity        `json:"specificity_markers"`
	Richness            Richness           `json:"sensory_emotional_hits"`
	ActionIdentity      ActionIdentity     `json:"action_identity_markers"`
	Coherence           Coherence          `json:"coherence_issues"`
	ProposedCSS         float64            `json:"proposed_css"`
	Rationale           string             `json:"rationale"`
	WeakestSignal       Signal             `json:"weakest_signal"`
	CategoriesAddressed []lexicon.Category `json:"categories_addressed"`
	Fallback            bool               `json:"-"`
}

// FallbackProposedCSS is the provider score assumed when analysis is unavailable.
const FallbackProposedCSS = 0.5

// FallbackAnalysis returns the degraded-but-valid analysis used when the
// provider cannot be reached or returns malformed output.
func FallbackAnalysis(reason string) Analysis {
	rationale := "fallback analysis: provider unavailable"
	if reason != "" {
		rationale = "fallback analysis: " + reason
	}
	return Analysis{
		CoverageHits: []string{},
		Specificity: Specificity{
			Numbers:     []string{},
			Names:       []string{},
			Measurables: []string{},
		},
		Richness: Richness{
			Sensory:        []string{},
			Emotions:       []string{},
			BodySensations: []string{},
		},
		ActionIdentity: ActionIdentity{
			IAmStatements: []string{},
			FutureActions: []string{},
			Behaviors:     []string{},
		},
		Coherence: Coherence{
			Hedges:         []string{},
			Contradictions: []string{},
			Vagueness:      []string{},
		},
		ProposedCSS:         FallbackProposedCSS,
		Rationale:           rationale,
		WeakestSignal:       SignalSpecificity,
		CategoriesAddressed: []lexicon.Category{},
		Fallback:            true,
	}
}
