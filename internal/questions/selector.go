package questions

import (
	"envision/internal/css"
	"envision/internal/lexicon"
)

// Snapshot is the part of a category's scoring state the controller reads.
type Snapshot struct {
	CSS           float64
	WeakestSignal css.Signal
	Band          css.Band
	Scored        bool
}

// NextCategory returns the category with the lowest CSS. Missing categories
// count as 0 and ties go to the earlier category in enumeration order.
func NextCategory(states map[lexicon.Category]Snapshot) lexicon.Category {
	var (
		best      lexicon.Category
		bestScore float64
	)
	for i, category := range lexicon.Categories() {
		score := 0.0
		if state, ok := states[category]; ok {
			score = state.CSS
		}
		if i == 0 || score < bestScore {
			best, bestScore = category, score
		}
	}
	return best
}
