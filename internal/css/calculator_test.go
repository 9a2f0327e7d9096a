package css

import (
	"math"
	"reflect"
	"slices"
	"strings"
	"testing"

	"envision/internal/lexicon"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func emptyAnalysis(proposed float64) Analysis {
	a := FallbackAnalysis("")
	a.ProposedCSS = proposed
	a.Fallback = false
	return a
}

func expectNear(t *testing.T, name string, got, want, tolerance float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Fatalf("%s = %v, want %v (±%v)", name, got, want, tolerance)
	}
}

func TestCalculateVisionScenario(t *testing.T) {
	analysis := emptyAnalysis(0.6)
	analysis.CoverageHits = []string{"specific_goal", "people_involved"}

	res := Calculate(words(40), analysis, lexicon.CategoryVision)

	if res.WordCount != 40 || res.Required != 3 {
		t.Fatalf("word count %d, required %d", res.WordCount, res.Required)
	}
	expectNear(t, "length score", res.Components.LengthScore, 0.8, 1e-9)
	expectNear(t, "coverage score", res.Components.CoverageScore, 0.667, 1e-3)
	expectNear(t, "length coverage", res.Components.LengthCoverage, 0.733, 1e-3)
	if res.Components.Specificity != 0 || res.Components.Richness != 0 || res.Components.ActionIdentity != 0 {
		t.Fatalf("expected empty channels to score zero: %+v", res.Components)
	}
	expectNear(t, "coherence", res.Components.Coherence, 1.0, 1e-9)
	expectNear(t, "calculated", res.CalculatedCSS, 0.2967, 1e-4)
	expectNear(t, "raw", res.RawCSS, 0.3877, 1e-4)
	if res.CSS != 0.39 || res.Band != BandEvoke {
		t.Fatalf("expected 0.39 EVOKE, got %v %s", res.CSS, res.Band)
	}
	if res.CoverageMet() {
		t.Fatal("two of three vision slots must not meet coverage")
	}
}

func TestCalculateSubscoresAreWeightedComponents(t *testing.T) {
	analysis := emptyAnalysis(0.9)
	analysis.CoverageHits = []string{"core_emotion"}
	analysis.Specificity.Numbers = []string{"3"}
	analysis.Specificity.Names = []string{"Lisbon"}
	analysis.Richness.Emotions = []string{"calm", "proud"}
	analysis.ActionIdentity.IAmStatements = []string{"I am steady"}
	analysis.Coherence.Hedges = []string{"maybe"}

	res := Calculate(words(25), analysis, lexicon.CategoryEmotion)

	expectNear(t, "length coverage", res.Subscores.LengthCoverage, res.Components.LengthCoverage*WeightLengthCoverage, 1e-12)
	expectNear(t, "specificity", res.Subscores.Specificity, res.Components.Specificity*WeightSpecificity, 1e-12)
	expectNear(t, "richness", res.Subscores.Richness, res.Components.Richness*WeightRichness, 1e-12)
	expectNear(t, "action", res.Subscores.ActionIdentity, res.Components.ActionIdentity*WeightActionIdentity, 1e-12)
	expectNear(t, "coherence", res.Subscores.Coherence, res.Components.Coherence*WeightCoherence, 1e-12)

	sum := res.Subscores.LengthCoverage + res.Subscores.Specificity + res.Subscores.Richness +
		res.Subscores.ActionIdentity + res.Subscores.Coherence
	expectNear(t, "subscore sum", sum, res.CalculatedCSS, 1e-12)
	// The blended score includes the provider proposal, so subscores do not add up to it.
	if Round2(sum) == res.CSS {
		t.Fatalf("expected subscores (%v) to differ from blended css %v", sum, res.CSS)
	}
}

func TestCalculateIgnoresForeignCoverageHits(t *testing.T) {
	analysis := emptyAnalysis(0.5)
	analysis.CoverageHits = []string{"specific_goal", "i_am_statement", "made_up"}

	res := Calculate(words(10), analysis, lexicon.CategoryIdentity)
	if !slices.Equal(res.CoverageHits, []string{"i_am_statement"}) {
		t.Fatalf("coverage hits = %v", res.CoverageHits)
	}
	expectNear(t, "coverage score", res.Components.CoverageScore, 0.5, 1e-9)
}

func TestCalculateClampsAndSaturates(t *testing.T) {
	analysis := emptyAnalysis(7)
	analysis.CoverageHits = lexicon.CoverageFor(lexicon.CategoryVision).Slots
	analysis.Specificity.Numbers = []string{"1", "2", "3", "4", "5", "6"}
	analysis.Richness.Sensory = []string{"a", "b", "c", "d", "e", "f", "g"}
	analysis.ActionIdentity.Behaviors = []string{"a", "b", "c", "d", "e"}

	res := Calculate(words(120), analysis, lexicon.CategoryVision)
	if res.ProposedCSS != 1 || res.CSS != 1 || res.Band != BandAdvance {
		t.Fatalf("expected saturated ADVANCE, got proposed %v css %v %s", res.ProposedCSS, res.CSS, res.Band)
	}
	expectNear(t, "calculated", res.CalculatedCSS, 1.0, 1e-12)
	if !res.CoverageMet() {
		t.Fatal("expected coverage met")
	}

	analysis.ProposedCSS = -3
	analysis.Coherence.Contradictions = []string{"a", "b", "c", "d", "e", "f"}
	res = Calculate("", analysis, lexicon.CategoryVision)
	if res.ProposedCSS != 0 || res.Components.Coherence != 0 {
		t.Fatalf("expected clamped proposal and coherence, got %v %v", res.ProposedCSS, res.Components.Coherence)
	}
	if res.CSS < 0 || res.CSS > 1 {
		t.Fatalf("css out of range: %v", res.CSS)
	}
}

func TestCalculateBandUsesRoundedScore(t *testing.T) {
	tests := []struct {
		name     string
		analysis func() Analysis
		words    int
		raw      float64
		css      float64
		band     Band
	}{
		{
			name: "rounds up to advance",
			analysis: func() Analysis {
				a := emptyAnalysis(1)
				a.Specificity.Numbers = []string{"1", "2", "3"}
				a.Richness.Emotions = []string{"calm", "proud"}
				a.ActionIdentity.Behaviors = []string{"walk", "write"}
				return a
			},
			words: 50,
			raw:   0.6967,
			css:   0.70,
			band:  BandAdvance,
		},
		{
			name:     "rounds up to clarify",
			analysis: func() Analysis { return emptyAnalysis(0.9733) },
			words:    0,
			raw:      0.3970,
			css:      0.40,
			band:     BandClarify,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Calculate(words(tt.words), tt.analysis(), lexicon.CategoryVision)
			expectNear(t, "raw", res.RawCSS, tt.raw, 1e-4)
			if Classify(res.RawCSS) == tt.band {
				t.Fatalf("raw %v should sit below the %s threshold", res.RawCSS, tt.band)
			}
			if res.CSS != tt.css || res.Band != tt.band {
				t.Fatalf("got %v %s, want %v %s", res.CSS, res.Band, tt.css, tt.band)
			}
		})
	}
}

func TestCalculateBoundedForArbitraryInputs(t *testing.T) {
	for n := 0; n <= 80; n += 7 {
		for hedges := 0; hedges <= 12; hedges += 3 {
			for _, proposed := range []float64{math.NaN(), -1, 0, 0.3, 1, 2} {
				analysis := emptyAnalysis(proposed)
				analysis.Coherence.Hedges = make([]string, hedges)
				analysis.Richness.Emotions = make([]string, n%9)
				res := Calculate(strings.Repeat("x ", n), analysis, lexicon.CategoryBelief)
				if res.CSS < 0 || res.CSS > 1 {
					t.Fatalf("css out of range for n=%d hedges=%d proposed=%v: %v", n, hedges, proposed, res.CSS)
				}
				if res.Band != Classify(res.CSS) {
					t.Fatalf("band %s does not match css %v", res.Band, res.CSS)
				}
			}
		}
	}
}

func TestCalculateDeterministic(t *testing.T) {
	analysis := emptyAnalysis(0.42)
	analysis.CoverageHits = []string{"daily_practice", "body_sensation"}
	analysis.Richness.BodySensations = []string{"shoulders"}

	first := Calculate(words(33), analysis, lexicon.CategoryEmbodiment)
	for i := 0; i < 5; i++ {
		if next := Calculate(words(33), analysis, lexicon.CategoryEmbodiment); !reflect.DeepEqual(first, next) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, next)
		}
	}
}

func TestCoverageScoreMonotonic(t *testing.T) {
	slots := lexicon.CoverageFor(lexicon.CategoryEmbodiment).Slots
	prev := -1.0
	for i := 0; i <= len(slots); i++ {
		analysis := emptyAnalysis(0.5)
		analysis.CoverageHits = slots[:i]
		res := Calculate(words(20), analysis, lexicon.CategoryEmbodiment)
		if res.Components.CoverageScore < prev {
			t.Fatalf("coverage dropped from %v to %v at %d hits", prev, res.Components.CoverageScore, i)
		}
		prev = res.Components.CoverageScore
	}
}

func TestCalculateUnknownCategory(t *testing.T) {
	analysis := emptyAnalysis(0.5)
	analysis.CoverageHits = []string{"specific_goal"}
	res := Calculate(words(10), analysis, lexicon.Category("career"))
	if res.Required != 0 || res.Components.CoverageScore != 0 || len(res.CoverageHits) != 0 {
		t.Fatalf("unexpected coverage for unknown category: %+v", res)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{1, BandAdvance},
		{0.70, BandAdvance},
		{0.6999, BandClarify},
		{0.40, BandClarify},
		{0.3999, BandEvoke},
		{0, BandEvoke},
	}
	for _, tt := range tests {
		got := Classify(tt.score)
		if got != tt.want {
			t.Fatalf("Classify(%v) = %s, want %s", tt.score, got, tt.want)
		}
		if !got.Valid() {
			t.Fatalf("band %s should be valid", got)
		}
	}
	if Band("PAUSE").Valid() {
		t.Fatal("unknown band reported valid")
	}
}

func TestFallbackAnalysis(t *testing.T) {
	a := FallbackAnalysis("timeout")
	if !a.Fallback || a.ProposedCSS != 0.5 || a.WeakestSignal != SignalSpecificity {
		t.Fatalf("unexpected fallback analysis: %+v", a)
	}
	if !strings.Contains(a.Rationale, "fallback") {
		t.Fatalf("rationale %q does not mark the fallback", a.Rationale)
	}
	if a.CoverageHits == nil || a.Specificity.Numbers == nil || a.Richness.BodySensations == nil ||
		a.ActionIdentity.Behaviors == nil || a.Coherence.Vagueness == nil || a.CategoriesAddressed == nil {
		t.Fatalf("fallback analysis has nil lists: %+v", a)
	}
}

func TestSignalValid(t *testing.T) {
	for _, s := range []Signal{SignalLength, SignalSpecificity, SignalRichness, SignalActionIdentity, SignalCoherence} {
		if !s.Valid() {
			t.Fatalf("signal %q should be valid", s)
		}
	}
	if Signal("vibes").Valid() {
		t.Fatal("unknown signal reported valid")
	}
}
