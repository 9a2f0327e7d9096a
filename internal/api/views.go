package api

import (
	"fmt"
	"time"

	"envision/internal/lexicon"
)

// ScoreRow is one line of a per-category score table.
type ScoreRow struct {
	Category      string
	CSS           string
	Band          string
	Coverage      string
	WeakestSignal string
	LastScored    string
}

// ScoreRows lists every category in enumeration order. Unscored categories
// show a dash in place of their band.
func ScoreRows(states map[string]CategoryState) []ScoreRow {
	rows := make([]ScoreRow, 0, len(lexicon.Categories()))
	for _, category := range lexicon.Categories() {
		state, ok := states[string(category)]
		row := ScoreRow{
			Category: category.DisplayName(),
			CSS:      fmt.Sprintf("%.2f", state.CSS),
			Band:     "-",
			Coverage: fmt.Sprintf("0/%d", lexicon.RequiredCoverage(category)),
		}
		if ok {
			row.Band = state.DecisionBand
			row.Coverage = fmt.Sprintf("%d/%d", len(state.Coverage.Hits), state.Coverage.Required)
			row.WeakestSignal = state.WeakestSignal
			row.LastScored = DisplayTime(state.LastScoredAt)
		}
		rows = append(rows, row)
	}
	return rows
}

// ShortID trims a session id for table display.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// DisplayTime renders an API timestamp in local time, or "" when unparsable.
func DisplayTime(value string) string {
	t := ParseTime(value)
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// ParseTime parses an API timestamp. It returns the zero time on failure.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
