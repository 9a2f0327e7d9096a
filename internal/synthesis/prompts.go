package synthesis

import (
	"fmt"
	"strings"

	"envision/internal/textutil"
	"envision/internal/vision"
)

const (
	maxCategoryLabels = 4
	maxTitleWords     = 8
	maxTaglineWords   = 12
)

const titleSystemPrompt = `You name personal vision statements for a guided meditation app.
Read the user's first reflection and respond with JSON only:
{"title": "<3 to 6 word title>", "categories": ["<1 to 4 short lowercase life-area labels>"]}
Labels are everyday words such as "health", "career", "family", "creativity".`

const summarySystemPrompt = `You write the vision summary for a guided meditation app.
Read the user's reflections grouped by category and respond with JSON only:
{"summary": "<2 to 4 sentences in second person, present tense, concrete and warm>", "tagline": "<one line of at most 12 words>"}
Use only details the user gave. Do not invent names, numbers or places.`

type titleReply struct {
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
}

type summaryReply struct {
	Summary string `json:"summary"`
	Tagline string `json:"tagline"`
}

func buildTitlePrompt(first vision.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", first.Category.DisplayName())
	fmt.Fprintf(&b, "Question: %s\n", first.Question)
	fmt.Fprintf(&b, "Answer: %s\n", first.Answer)
	return b.String()
}

func buildSummaryPrompt(session *vision.Session) string {
	var b strings.Builder
	if session.Title != "" {
		fmt.Fprintf(&b, "Working title: %s\n\n", session.Title)
	}
	current := ""
	for _, r := range session.Responses {
		label := r.Category.DisplayName()
		if label != current {
			fmt.Fprintf(&b, "## %s\n", label)
			current = label
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", r.Question, r.Answer)
	}
	return b.String()
}

// normalizeTitle title-cases the title and caps its length. Labels are
// lowercased, de-duplicated and capped.
func normalizeTitle(reply titleReply) (string, []string) {
	title := strings.Trim(textutil.CollapseSpace(reply.Title), `"'.`)
	if fields := strings.Fields(title); len(fields) > maxTitleWords {
		title = strings.Join(fields[:maxTitleWords], " ")
	}
	labels := textutil.UniqueLower(reply.Categories)
	if len(labels) > maxCategoryLabels {
		labels = labels[:maxCategoryLabels]
	}
	return textutil.TitleCase(title), labels
}

func normalizeSummary(reply summaryReply) (string, string) {
	summary := textutil.CollapseSpace(reply.Summary)
	tagline := strings.Trim(textutil.CollapseSpace(reply.Tagline), `"'`)
	if fields := strings.Fields(tagline); len(fields) > maxTaglineWords {
		tagline = strings.Join(fields[:maxTaglineWords], " ")
	}
	return summary, tagline
}
