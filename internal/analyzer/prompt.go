package analyzer

import (
	"fmt"
	"strings"

	"envision/internal/lexicon"
	"envision/internal/textutil"
)

// maxPreviousAnswerRunes clips each earlier answer. Every earlier exchange in
// the category is sent; only its length is bounded.
const maxPreviousAnswerRunes = 600

const systemPrompt = `You analyze one answer a person gave while building a personal vision for a guided meditation.
Extract evidence only from the answer text. Respond with a single JSON object and nothing else:
{
  "coverage_hits": [slot names from the allowed list that the answer clearly addresses],
  "specificity_markers": {"numbers": [], "names": [], "measurables": []},
  "sensory_emotional_hits": {"sensory": [], "emotions": [], "body_sensations": []},
  "action_identity_markers": {"i_am_statements": [], "future_actions": [], "behaviors": []},
  "coherence_issues": {"hedges": [], "contradictions": [], "vagueness": []},
  "proposed_css": number between 0 and 1 for how sufficient the answer is,
  "rationale": one short sentence,
  "weakest_signal": one of "length", "specificity", "richness", "actionIdentity", "coherence",
  "categories_addressed": categories from [vision, emotion, belief, identity, embodiment] the answer speaks to
}
Quote short phrases from the answer in every list. Use empty lists when nothing applies.`

func buildUserPrompt(req Request) string {
	var b strings.Builder
	coverage := lexicon.CoverageFor(req.Category)
	fmt.Fprintf(&b, "Category: %s\n", req.Category.DisplayName())
	fmt.Fprintf(&b, "Required coverage: %d of [%s]\n", coverage.Required, strings.Join(coverage.Slots, ", "))
	b.WriteString("Allowed slot names for other categories:\n")
	for _, category := range lexicon.Categories() {
		if category == req.Category {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", category, strings.Join(lexicon.CoverageFor(category).Slots, ", "))
	}

	if len(req.Previous) > 0 {
		b.WriteString("\nEarlier answers in this category:\n")
		for i, ex := range req.Previous {
			fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1,
				strings.TrimSpace(ex.Question), textutil.Snippet(ex.Answer, maxPreviousAnswerRunes))
		}
	}

	b.WriteString("\nCalibration hints (examples, not exhaustive):\n")
	b.WriteString(lexicon.Hints())
	fmt.Fprintf(&b, "\n\nQuestion: %s\nAnswer: %s\n", strings.TrimSpace(req.Question), strings.TrimSpace(req.Answer))
	return b.String()
}
