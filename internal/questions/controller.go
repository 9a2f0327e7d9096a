package questions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"envision/internal/css"
	"envision/internal/lexicon"
	"envision/internal/logging"
	"envision/internal/services"
	"envision/internal/services/llm"
	"envision/internal/textutil"
)

// duplicateThreshold is the cosine similarity above which a generated question
// is treated as a repeat of one already asked.
const duplicateThreshold = 0.9

// TextGenerationProvider returns free text for a system/user prompt pair.
// *llm.Client satisfies it.
type TextGenerationProvider interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Exchange is one earlier question/answer pair in the category.
type Exchange struct {
	Question string
	Answer   string
}

// Controller generates follow-up questions.
type Controller struct {
	provider    TextGenerationProvider
	maxAttempts int
	logger      *slog.Logger
}

// NewController builds a controller. maxAttempts bounds how many times a
// compound or repeated question is re-requested; values below 1 mean 1.
func NewController(provider TextGenerationProvider, maxAttempts int, logger *slog.Logger) *Controller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Controller{
		provider:    provider,
		maxAttempts: maxAttempts,
		logger:      logging.NewComponentLogger(logger, "questions"),
	}
}

// NextCategory picks the category to probe next. See NextCategory.
func (c *Controller) NextCategory(ctx context.Context, states map[lexicon.Category]Snapshot) lexicon.Category {
	category := NextCategory(states)
	state := states[category]
	logging.WithContext(ctx, c.logger).Info("next category selected",
		logging.Args(append(logging.DecisionAttrs("question_category", string(category), "lowest css"),
			logging.Float64("css", state.CSS),
			logging.Bool("scored", state.Scored),
		)...)...)
	return category
}

// GenerateNextQuestion asks the provider for one question about category that
// targets snapshot.WeakestSignal. Compound or repeated questions are
// re-requested up to the attempt limit; a compound question that survives
// every attempt is cut down to its first question.
func (c *Controller) GenerateNextQuestion(ctx context.Context, category lexicon.Category, prior []Exchange, snapshot Snapshot) (string, error) {
	if !category.Valid() {
		return "", services.Wrap(services.ErrValidation, "questions", "generate", fmt.Sprintf("unknown category %q", category), nil)
	}
	if c.provider == nil {
		return "", services.Wrap(services.ErrProviderUnavailable, "questions", "generate", "text generation provider not configured", nil)
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldCategory, string(category)))

	asked := make([]string, 0, len(prior))
	for _, ex := range prior {
		asked = append(asked, ex.Question)
	}
	userPrompt := buildUserPrompt(category, prior, snapshot)

	var question, problem string
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		prompt := userPrompt
		if problem != "" {
			prompt += "\n\nYour previous reply was rejected: " + problem + ". Reply with exactly one new question."
		}
		raw, err := c.provider.CompleteText(ctx, systemPrompt, prompt)
		if err != nil {
			return "", services.Wrap(services.ErrProviderUnavailable, "questions", "generate", "text generation failed", err)
		}
		question = cleanQuestion(raw)
		if question == "" {
			return "", services.Wrap(services.ErrProviderUnavailable, "questions", "generate", "provider returned an empty question", nil)
		}
		problem = inspect(question, asked)
		if problem == "" {
			break
		}
		logger.Debug("generated question rejected",
			logging.Int("attempt", attempt),
			logging.String("reason", problem),
			logging.String("question", question),
		)
	}

	if strings.Count(question, "?") > 1 {
		question = firstQuestion(question)
		logging.WarnWithContext(logger, "compound question truncated to first question", "question_truncated",
			logging.Int("max_attempts", c.maxAttempts),
			logging.String(logging.FieldImpact, "user sees only the first question"),
			logging.String(logging.FieldErrorHint, "consider a model that follows single-question instructions"),
		)
	}
	logger.Info("question generated",
		logging.String("weakest_signal", string(snapshot.WeakestSignal)),
		logging.Int("length", len(question)),
	)
	return question, nil
}

func inspect(question string, asked []string) string {
	if strings.Count(question, "?") > 1 {
		return "it contained more than one question"
	}
	if textutil.MaxSimilarity(question, asked) >= duplicateThreshold {
		return "it repeated a question that was already asked"
	}
	return ""
}

// cleanQuestion strips fences, quotes and labels the model sometimes adds.
func cleanQuestion(raw string) string {
	text := textutil.CollapseSpace(llm.StripCodeFence(raw))
	text = strings.Trim(text, "\"'` ")
	for _, prefix := range []string{"Question:", "Q:"} {
		if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
			text = strings.TrimSpace(text[len(prefix):])
		}
	}
	return strings.Trim(text, "\"' ")
}

// firstQuestion returns the text up to and including the first question mark.
func firstQuestion(text string) string {
	idx := strings.Index(text, "?")
	if idx < 0 {
		return text
	}
	return strings.TrimSpace(text[:idx+1])
}

var signalGuidance = map[css.Signal]string{
	css.SignalLength:         "Invite a fuller answer: ask them to walk through the moment in more detail.",
	css.SignalSpecificity:    "Ask for concrete specifics: numbers, names, places, dates or measurable outcomes.",
	css.SignalRichness:       "Ask what they would see, hear, feel in their body or feel emotionally in that moment.",
	css.SignalActionIdentity: "Ask who they are being or what they will actually do; invite an \"I am\" statement or a concrete habit.",
	css.SignalCoherence:      "Gently ask them to resolve uncertainty or contradiction and say what they truly want.",
}

// Guidance returns the prompt instruction used for a weakest signal.
func Guidance(signal css.Signal) string {
	if g, ok := signalGuidance[signal]; ok {
		return g
	}
	return signalGuidance[css.SignalSpecificity]
}

const systemPrompt = `You are a warm, concise guide helping someone articulate a personal vision for a guided meditation.
Write exactly one open question, at most 30 words, in second person.
Never ask two questions, never number items, never add commentary. Reply with the question only.`

var categoryFocus = map[lexicon.Category]string{
	lexicon.CategoryVision:     "the concrete future they want: goal, place, timeframe, people, how they will know they made it",
	lexicon.CategoryEmotion:    "how they feel now, what triggers it, and the feeling they want to live in",
	lexicon.CategoryBelief:     "beliefs that hold them back, beliefs that empower them, and where those came from",
	lexicon.CategoryIdentity:   "who they are becoming: values, roles and \"I am\" statements",
	lexicon.CategoryEmbodiment: "daily practices, body sensations, environment, triggers and breath or posture",
}

func buildUserPrompt(category lexicon.Category, prior []Exchange, snapshot Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s (%s)\n", category.DisplayName(), categoryFocus[category])
	if snapshot.Scored {
		fmt.Fprintf(&b, "Current sufficiency: %.2f (%s)\n", snapshot.CSS, snapshot.Band)
	} else {
		b.WriteString("Current sufficiency: not yet explored\n")
	}
	fmt.Fprintf(&b, "Focus: %s\n", Guidance(snapshot.WeakestSignal))
	if len(prior) > 0 {
		b.WriteString("\nWhat they already shared in this category:\n")
		for i, ex := range prior {
			fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, strings.TrimSpace(ex.Question), textutil.Snippet(ex.Answer, 400))
		}
		b.WriteString("\nDo not repeat any earlier question.")
	}
	return b.String()
}
