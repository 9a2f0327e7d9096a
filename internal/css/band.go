package css

// Band is the coarse conversational strategy derived from a score.
type Band string

const (
	BandAdvance Band = "ADVANCE"
	BandClarify Band = "CLARIFY"
	BandEvoke   Band = "EVOKE"
)

// Band thresholds, inclusive lower bounds.
const (
	AdvanceThreshold = 0.70
	ClarifyThreshold = 0.40
)

// Classify maps a score to its decision band.
func Classify(score float64) Band {
	switch {
	case score >= AdvanceThreshold:
		return BandAdvance
	case score >= ClarifyThreshold:
		return BandClarify
	default:
		return BandEvoke
	}
}

// Valid reports whether b is a known band.
func (b Band) Valid() bool {
	switch b {
	case BandAdvance, BandClarify, BandEvoke:
		return true
	}
	return false
}
