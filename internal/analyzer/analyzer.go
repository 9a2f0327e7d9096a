package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"envision/internal/css"
	"envision/internal/lexicon"
	"envision/internal/logging"
	"envision/internal/services/llm"
)

// TextAnalysisProvider returns a JSON object for a system/user prompt pair.
// *llm.Client satisfies it.
type TextAnalysisProvider interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Exchange is one earlier question/answer pair in the same category.
type Exchange struct {
	Question string
	Answer   string
}

// Request is the input of a single analysis.
type Request struct {
	Category lexicon.Category
	Question string
	Answer   string
	Previous []Exchange
}

// Analyzer turns answers into css.Analysis values.
type Analyzer struct {
	provider TextAnalysisProvider
	logger   *slog.Logger
}

// New constructs an analyzer. A nil provider makes every analysis a fallback.
func New(provider TextAnalysisProvider, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "analyzer"),
	}
}

// Analyze returns the structured signals of req.Answer. It never fails.
func (a *Analyzer) Analyze(ctx context.Context, req Request) css.Analysis {
	logger := logging.WithContext(ctx, a.logger).With(logging.String(logging.FieldCategory, string(req.Category)))
	if a.provider == nil {
		return a.fallback(logger, "provider not configured", nil)
	}

	content, err := a.provider.CompleteJSON(ctx, systemPrompt, buildUserPrompt(req))
	if err != nil {
		return a.fallback(logger, "provider unavailable", err)
	}
	analysis, err := Decode(content)
	if err != nil {
		return a.fallback(logger, "malformed provider output", err)
	}
	logger.Debug("answer analyzed",
		logging.Float64("proposed_css", analysis.ProposedCSS),
		logging.String("weakest_signal", string(analysis.WeakestSignal)),
		logging.Int("coverage_hits", len(analysis.CoverageHits)),
	)
	return analysis
}

func (a *Analyzer) fallback(logger *slog.Logger, reason string, err error) css.Analysis {
	attrs := []logging.Attr{
		logging.String("reason", reason),
		logging.String(logging.FieldImpact, "answer scored with neutral provider proposal"),
		logging.String(logging.FieldErrorHint, "check llm api key, model and provider status"),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WarnWithContext(logger, "response analysis degraded to fallback", "analysis_fallback", attrs...)
	return css.FallbackAnalysis(reason)
}

type rawAnalysis struct {
	CoverageHits        []string           `json:"coverage_hits"`
	Specificity         css.Specificity    `json:"specificity_markers"`
	Richness            css.Richness       `json:"sensory_emotional_hits"`
	ActionIdentity      css.ActionIdentity `json:"action_identity_markers"`
	Coherence           css.Coherence      `json:"coherence_issues"`
	ProposedCSS         *float64           `json:"proposed_css"`
	Rationale           string             `json:"rationale"`
	WeakestSignal       string             `json:"weakest_signal"`
	CategoriesAddressed []string           `json:"categories_addressed"`
}

// Decode parses provider output and applies the analysis schema: lists are
// trimmed, de-duplicated and never nil, coverage hits are restricted to known
// slot names, unknown categories are dropped, proposed_css is clamped and an
// unknown weakest signal becomes specificity. A missing proposed_css is an error.
func Decode(content string) (css.Analysis, error) {
	var raw rawAnalysis
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return css.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if raw.ProposedCSS == nil {
		return css.Analysis{}, errors.New("decode analysis: proposed_css missing")
	}
	if math.IsNaN(*raw.ProposedCSS) || math.IsInf(*raw.ProposedCSS, 0) {
		return css.Analysis{}, errors.New("decode analysis: proposed_css not finite")
	}

	out := css.Analysis{
		CoverageHits: knownSlots(raw.CoverageHits),
		Specificity: css.Specificity{
			Numbers:     cleanList(raw.Specificity.Numbers),
			Names:       cleanList(raw.Specificity.Names),
			Measurables: cleanList(raw.Specificity.Measurables),
		},
		Richness: css.Richness{
			Sensory:        cleanList(raw.Richness.Sensory),
			Emotions:       cleanList(raw.Richness.Emotions),
			BodySensations: cleanList(raw.Richness.BodySensations),
		},
		ActionIdentity: css.ActionIdentity{
			IAmStatements: cleanList(raw.ActionIdentity.IAmStatements),
			FutureActions: cleanList(raw.ActionIdentity.FutureActions),
			Behaviors:     cleanList(raw.ActionIdentity.Behaviors),
		},
		Coherence: css.Coherence{
			Hedges:         cleanList(raw.Coherence.Hedges),
			Contradictions: cleanList(raw.Coherence.Contradictions),
			Vagueness:      cleanList(raw.Coherence.Vagueness),
		},
		ProposedCSS:         css.Clamp01(*raw.ProposedCSS),
		Rationale:           strings.TrimSpace(raw.Rationale),
		WeakestSignal:       css.Signal(strings.TrimSpace(raw.WeakestSignal)),
		CategoriesAddressed: knownCategories(raw.CategoriesAddressed),
	}
	if !out.WeakestSignal.Valid() {
		out.WeakestSignal = css.SignalSpecificity
	}
	return out, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
	}
	return out
}

func knownSlots(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		slot := strings.ToLower(strings.TrimSpace(value))
		if _, ok := lexicon.SlotCategory(slot); !ok {
			continue
		}
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	return out
}

func knownCategories(values []string) []lexicon.Category {
	out := make([]lexicon.Category, 0, len(values))
	seen := make(map[lexicon.Category]struct{}, len(values))
	for _, value := range values {
		category, ok := lexicon.Parse(value)
		if !ok {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		out = append(out, category)
	}
	return out
}
