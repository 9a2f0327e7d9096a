package lexicon

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is one of the fixed reflection dimensions a vision is scored on.
type Category string

const (
	CategoryVision     Category = "vision"
	CategoryEmotion    Category = "emotion"
	CategoryBelief     Category = "belief"
	CategoryIdentity   Category = "identity"
	CategoryEmbodiment Category = "embodiment"
)

// Coverage describes the sub-topics a category expects an answer to address.
type Coverage struct {
	Required int
	Slots    []string
}

var allCategories = []Category{
	CategoryVision,
	CategoryEmotion,
	CategoryBelief,
	CategoryIdentity,
	CategoryEmbodiment,
}

// Slot names are unique across categories so a flat hit list can be
// attributed to every category it mentions.
var coverageTable = map[Category]Coverage{
	CategoryVision: {
		Required: 3,
		Slots: []string{
			"specific_goal",
			"scene_location_timeframe",
			"people_involved",
			"sensory_details",
			"success_criteria",
		},
	},
	CategoryEmotion: {
		Required: 2,
		Slots: []string{
			"core_emotion",
			"emotional_trigger",
			"emotional_shift",
			"desired_feeling",
		},
	},
	CategoryBelief: {
		Required: 2,
		Slots: []string{
			"limiting_belief",
			"empowering_belief",
			"belief_origin",
			"supporting_evidence",
		},
	},
	CategoryIdentity: {
		Required: 2,
		Slots: []string{
			"i_am_statement",
			"core_values",
			"role_identity",
			"future_self_traits",
		},
	},
	CategoryEmbodiment: {
		Required: 3,
		Slots: []string{
			"daily_practice",
			"body_sensation",
			"physical_environment",
			"habit_trigger",
			"breath_posture",
		},
	},
}

var slotOwner = func() map[string]Category {
	owners := make(map[string]Category)
	for category, coverage := range coverageTable {
		for _, slot := range coverage.Slots {
			owners[slot] = category
		}
	}
	return owners
}()

// Categories returns the fixed categories in enumeration order. The order is
// significant: it breaks ties when the question controller picks a category.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Parse normalizes a user or provider supplied category label.
func Parse(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := coverageTable[normalized]; ok {
		return normalized, true
	}
	return "", false
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := coverageTable[c]
	return ok
}

// DisplayName returns the title-cased label used in prompts and CLI output.
func (c Category) DisplayName() string {
	return cases.Title(language.English).String(string(c))
}

// Index returns the enumeration position, or -1 for unknown categories.
func (c Category) Index() int {
	for i, candidate := range allCategories {
		if candidate == c {
			return i
		}
	}
	return -1
}

// CoverageFor returns the coverage requirements of a category. Unknown
// categories report a zero-value Coverage.
func CoverageFor(c Category) Coverage {
	coverage, ok := coverageTable[c]
	if !ok {
		return Coverage{}
	}
	slots := make([]string, len(coverage.Slots))
	copy(slots, coverage.Slots)
	return Coverage{Required: coverage.Required, Slots: slots}
}

// RequiredCoverage returns how many slots a category needs to be considered covered.
func RequiredCoverage(c Category) int {
	return coverageTable[c].Required
}

// SlotCategory returns the category owning a slot name.
func SlotCategory(slot string) (Category, bool) {
	category, ok := slotOwner[strings.ToLower(strings.TrimSpace(slot))]
	return category, ok
}

// FilterSlots keeps the hits that belong to category, in slot order, without
// duplicates.
func FilterSlots(c Category, hits []string) []string {
	coverage, ok := coverageTable[c]
	if !ok || len(hits) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		seen[strings.ToLower(strings.TrimSpace(hit))] = struct{}{}
	}
	out := make([]string, 0, len(coverage.Slots))
	for _, slot := range coverage.Slots {
		if _, ok := seen[slot]; ok {
			out = append(out, slot)
		}
	}
	return out
}
