package vision

import (
	"math"
	"time"

	"envision/internal/css"
	"envision/internal/lexicon"
	"envision/internal/questions"
)

// Response is one answered question. It is never mutated after creation.
type Response struct {
	ID        string           `json:"id"`
	VisionID  string           `json:"vision_id"`
	Category  lexicon.Category `json:"category"`
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	CreatedAt time.Time        `json:"created_at"`
}

// Coverage records which slots of a category the latest answer hit.
type Coverage struct {
	Hits     []string `json:"hits"`
	Required int      `json:"required"`
	Met      bool     `json:"met"`
}

// CategoryState is the latest scoring snapshot of one category. It is
// replaced wholesale every time the category is scored.
type CategoryState struct {
	CSS           float64       `json:"css"`
	Coverage      Coverage      `json:"coverage"`
	Subscores     css.Subscores `json:"subscores"`
	DecisionBand  css.Band      `json:"decision_band"`
	WeakestSignal css.Signal    `json:"weakest_signal"`
	LastScoredAt  *time.Time    `json:"last_scored_at,omitempty"`
}

// Session is a user's vision-building session.
type Session struct {
	ID                  string                             `json:"id"`
	UserID              string                             `json:"user_id"`
	Title               string                             `json:"title"`
	Categories          []string                           `json:"categories"`
	CategoryStates      map[lexicon.Category]CategoryState `json:"category_states"`
	OverallCompleteness int                                `json:"overall_completeness"`
	Summary             *string                            `json:"summary,omitempty"`
	Tagline             *string                            `json:"tagline,omitempty"`
	Status              Status                             `json:"status"`
	Responses           []Response                         `json:"responses"`
	ResponseCount       int                                `json:"response_count"`
	CreatedAt           time.Time                          `json:"created_at"`
	UpdatedAt           time.Time                          `json:"updated_at"`
}

// NewSession returns an empty processing session.
func NewSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:             id,
		UserID:         userID,
		Categories:     []string{},
		CategoryStates: make(map[lexicon.Category]CategoryState),
		Status:         StatusProcessing,
		Responses:      []Response{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CSSScores returns the CSS of every category, 0 for categories never scored.
func (s *Session) CSSScores() map[lexicon.Category]float64 {
	scores := make(map[lexicon.Category]float64, len(lexicon.Categories()))
	for _, category := range lexicon.Categories() {
		scores[category] = s.CategoryStates[category].CSS
	}
	return scores
}

// Snapshots converts category states into the controller's view.
func (s *Session) Snapshots() map[lexicon.Category]questions.Snapshot {
	out := make(map[lexicon.Category]questions.Snapshot, len(s.CategoryStates))
	for category, state := range s.CategoryStates {
		out[category] = questions.Snapshot{
			CSS:           state.CSS,
			WeakestSignal: state.WeakestSignal,
			Band:          state.DecisionBand,
			Scored:        state.LastScoredAt != nil,
		}
	}
	return out
}

// ResponsesIn returns the responses of one category in creation order.
func (s *Session) ResponsesIn(category lexicon.Category) []Response {
	var out []Response
	for _, r := range s.Responses {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// OverallCompleteness is round(100 * mean CSS) over all categories, counting
// missing categories as 0.
func OverallCompleteness(states map[lexicon.Category]CategoryState) int {
	categories := lexicon.Categories()
	var sum float64
	for _, category := range categories {
		sum += states[category].CSS
	}
	return int(math.Round(100 * sum / float64(len(categories))))
}
