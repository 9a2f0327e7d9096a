package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WordCount returns the number of whitespace separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CollapseSpace trims text and replaces every whitespace run with one space.
func CollapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Snippet collapses whitespace and clips text to limit runes, appending an
// ellipsis when clipped. Empty input yields "<empty>".
func Snippet(text string, limit int) string {
	clean := CollapseSpace(text)
	if clean == "" {
		return "<empty>"
	}
	if limit <= 0 || utf8.RuneCountInString(clean) <= limit {
		return clean
	}
	runes := []rune(clean)
	return string(runes[:limit]) + "..."
}

// TitleCase converts a generated label to English title case.
func TitleCase(text string) string {
	clean := CollapseSpace(text)
	if clean == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ToLower(clean))
}

// UniqueLower lowercases, trims and de-duplicates values, preserving the first
// occurrence order. It never returns nil.
func UniqueLower(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(CollapseSpace(value))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
