package vision

import (
	"time"

	"envision/internal/css"
	"envision/internal/lexicon"
)

// Outcome describes what one aggregation changed.
type Outcome struct {
	// Result is the score of the answer for the category it was asked in.
	Result css.Result
	// Updated lists every category whose state was replaced, in enumeration order.
	Updated []lexicon.Category
}

// Aggregate scores answer for every category the analysis addressed plus the
// category it was asked in, replaces those category states in session and
// recomputes overall completeness. Given the same inputs it always produces
// the same session state.
func Aggregate(session *Session, category lexicon.Category, answer string, analysis css.Analysis, now time.Time) Outcome {
	if session.CategoryStates == nil {
		session.CategoryStates = make(map[lexicon.Category]CategoryState)
	}
	targets := make(map[lexicon.Category]struct{}, len(analysis.CategoriesAddressed)+1)
	targets[category] = struct{}{}
	for _, addressed := range analysis.CategoriesAddressed {
		if addressed.Valid() {
			targets[addressed] = struct{}{}
		}
	}

	var outcome Outcome
	for _, candidate := range lexicon.Categories() {
		if _, ok := targets[candidate]; !ok {
			continue
		}
		result := css.Calculate(answer, analysis, candidate)
		session.CategoryStates[candidate] = stateFromResult(result, analysis.WeakestSignal, now)
		outcome.Updated = append(outcome.Updated, candidate)
		if candidate == category {
			outcome.Result = result
		}
	}
	session.OverallCompleteness = OverallCompleteness(session.CategoryStates)
	session.UpdatedAt = now
	return outcome
}

func stateFromResult(result css.Result, weakest css.Signal, now time.Time) CategoryState {
	scoredAt := now
	hits := make([]string, len(result.CoverageHits))
	copy(hits, result.CoverageHits)
	return CategoryState{
		CSS: result.CSS,
		Coverage: Coverage{
			Hits:     hits,
			Required: result.Required,
			Met:      result.CoverageMet(),
		},
		Subscores:     result.Subscores,
		DecisionBand:  result.Band,
		WeakestSignal: weakest,
		LastScoredAt:  &scoredAt,
	}
}
