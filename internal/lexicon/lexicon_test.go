package lexicon

import (
	"slices"
	"strings"
	"testing"
)

func TestCategoriesEnumerationOrder(t *testing.T) {
	want := []Category{
		CategoryVision,
		CategoryEmotion,
		CategoryBelief,
		CategoryIdentity,
		CategoryEmbodiment,
	}
	if got := Categories(); !slices.Equal(got, want) {
		t.Fatalf("Categories() = %v, want %v", got, want)
	}

	cats := Categories()
	cats[0] = "mutated"
	if Categories()[0] != CategoryVision {
		t.Fatal("Categories must return a copy")
	}
}

func TestParse(t *testing.T) {
	got, ok := Parse("  Vision ")
	if !ok || got != CategoryVision {
		t.Fatalf("Parse(Vision) = %q, %v", got, ok)
	}
	if _, ok := Parse("career"); ok {
		t.Fatal("expected career to be rejected")
	}
	if _, ok := Parse(""); ok {
		t.Fatal("expected empty category to be rejected")
	}
}

func TestSlotNamesUniqueAcrossCategories(t *testing.T) {
	seen := map[string]Category{}
	for _, category := range Categories() {
		coverage := CoverageFor(category)
		if len(coverage.Slots) == 0 {
			t.Fatalf("%s has no slots", category)
		}
		if coverage.Required <= 0 || coverage.Required > len(coverage.Slots) {
			t.Fatalf("%s requires %d of %d slots", category, coverage.Required, len(coverage.Slots))
		}
		for _, slot := range coverage.Slots {
			if owner, dup := seen[slot]; dup {
				t.Fatalf("slot %q declared by %s and %s", slot, owner, category)
			}
			seen[slot] = category
			got, ok := SlotCategory(slot)
			if !ok || got != category {
				t.Fatalf("SlotCategory(%q) = %q, %v; want %q", slot, got, ok, category)
			}
		}
	}
}

func TestVisionSlots(t *testing.T) {
	coverage := CoverageFor(CategoryVision)
	if coverage.Required != 3 {
		t.Fatalf("expected vision to require 3 slots, got %d", coverage.Required)
	}
	want := []string{
		"specific_goal",
		"scene_location_timeframe",
		"people_involved",
		"sensory_details",
		"success_criteria",
	}
	if !slices.Equal(coverage.Slots, want) {
		t.Fatalf("vision slots = %v, want %v", coverage.Slots, want)
	}
}

func TestFilterSlots(t *testing.T) {
	hits := []string{"people_involved", "i_am_statement", "SPECIFIC_GOAL", "people_involved", "bogus"}

	if got := FilterSlots(CategoryVision, hits); !slices.Equal(got, []string{"specific_goal", "people_involved"}) {
		t.Fatalf("vision hits = %v", got)
	}
	if got := FilterSlots(CategoryIdentity, hits); !slices.Equal(got, []string{"i_am_statement"}) {
		t.Fatalf("identity hits = %v", got)
	}
	if got := FilterSlots(CategoryBelief, hits); len(got) != 0 {
		t.Fatalf("expected no belief hits, got %v", got)
	}
	if got := FilterSlots(CategoryBelief, nil); got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if got := FilterSlots("unknown", hits); len(got) != 0 {
		t.Fatalf("expected no hits for unknown category, got %v", got)
	}
}

func TestDisplayNameAndIndex(t *testing.T) {
	if got := CategoryEmbodiment.DisplayName(); got != "Embodiment" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := CategoryBelief.Index(); got != 2 {
		t.Fatalf("belief index = %d", got)
	}
	if got := Category("career").Index(); got != -1 {
		t.Fatalf("unknown index = %d", got)
	}
}

func TestHintsMentionsEveryList(t *testing.T) {
	hints := Hints()
	for _, label := range []string{"Sensory examples", "Emotion examples", "Body sensation examples", "Hedge examples"} {
		if !strings.Contains(hints, label) {
			t.Fatalf("hints missing %q:\n%s", label, hints)
		}
	}
}
