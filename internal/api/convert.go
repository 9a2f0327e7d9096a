package api

import (
	"time"

	"envision/internal/lexicon"
	"envision/internal/store"
	"envision/internal/synthesis"
	"envision/internal/vision"
)

// FromSession converts a session to its listing representation.
func FromSession(s *vision.Session) VisionSummary {
	if s == nil {
		return VisionSummary{}
	}
	dto := VisionSummary{
		ID:                  s.ID,
		Title:               s.Title,
		Categories:          s.Categories,
		OverallCompleteness: s.OverallCompleteness,
		CSSScores:           CSSScores(s.CSSScores()),
		CategoryStates:      make(map[string]CategoryState, len(s.CategoryStates)),
		Summary:             s.Summary,
		Tagline:             s.Tagline,
		Status:              string(s.Status),
		ResponseCount:       s.ResponseCount,
		CreatedAt:           formatTime(s.CreatedAt),
		UpdatedAt:           formatTime(s.UpdatedAt),
	}
	if dto.Categories == nil {
		dto.Categories = []string{}
	}
	for category, state := range s.CategoryStates {
		dto.CategoryStates[string(category)] = FromCategoryState(state)
	}
	return dto
}

// FromSessionDetail converts a session including its responses.
func FromSessionDetail(s *vision.Session) Vision {
	if s == nil {
		return Vision{}
	}
	dto := Vision{
		VisionSummary: FromSession(s),
		UserID:        s.UserID,
		Responses:     make([]Response, 0, len(s.Responses)),
	}
	for _, r := range s.Responses {
		dto.Responses = append(dto.Responses, Response{
			ID:        r.ID,
			Category:  string(r.Category),
			Question:  r.Question,
			Answer:    r.Answer,
			CreatedAt: formatTime(r.CreatedAt),
		})
	}
	if dto.ResponseCount == 0 {
		dto.ResponseCount = len(dto.Responses)
	}
	return dto
}

// FromSessions converts a listing.
func FromSessions(sessions []*vision.Session) VisionListResponse {
	out := VisionListResponse{Visions: make([]VisionSummary, 0, len(sessions))}
	for _, s := range sessions {
		out.Visions = append(out.Visions, FromSession(s))
	}
	return out
}

// FromCategoryState converts one category state.
func FromCategoryState(state vision.CategoryState) CategoryState {
	hits := state.Coverage.Hits
	if hits == nil {
		hits = []string{}
	}
	dto := CategoryState{
		CSS: state.CSS,
		Coverage: Coverage{
			Hits:     hits,
			Required: state.Coverage.Required,
			Met:      state.Coverage.Met,
		},
		Subscores: Subscores{
			LengthCoverage: state.Subscores.LengthCoverage,
			Specificity:    state.Subscores.Specificity,
			Richness:       state.Subscores.Richness,
			ActionIdentity: state.Subscores.ActionIdentity,
			Coherence:      state.Subscores.Coherence,
		},
		DecisionBand:  string(state.DecisionBand),
		WeakestSignal: string(state.WeakestSignal),
	}
	if state.LastScoredAt != nil {
		dto.LastScoredAt = formatTime(*state.LastScoredAt)
	}
	return dto
}

// FromSubmitResult converts the outcome of an answer submission.
func FromSubmitResult(res *vision.SubmitResult) SubmitResponse {
	if res == nil {
		return SubmitResponse{}
	}
	return SubmitResponse{
		OverallCompleteness: res.OverallCompleteness,
		CSSScores:           CSSScores(res.CSSScores),
		CSS:                 res.CSS,
		DecisionBand:        string(res.DecisionBand),
		CategoriesAddressed: categoryStrings(res.CategoriesAddressed),
		CategoriesUpdated:   categoryStrings(res.CategoriesUpdated),
		WeakestSignal:       string(res.WeakestSignal),
		FallbackAnalysis:    res.FallbackAnalysis,
	}
}

// CSSScores keys scores by category name, filling unscored categories with 0.
func CSSScores(scores map[lexicon.Category]float64) map[string]float64 {
	out := make(map[string]float64, len(lexicon.Categories()))
	for _, category := range lexicon.Categories() {
		out[string(category)] = scores[category]
	}
	return out
}

// FromWorkerStatus converts synthesis worker diagnostics.
func FromWorkerStatus(status synthesis.StatusSummary) *WorkerStatus {
	return &WorkerStatus{
		Running:   status.Running,
		Pending:   status.Pending,
		Processed: status.Processed,
		Failed:    status.Failed,
		LastError: status.LastError,
	}
}

// FromStoreHealth converts database diagnostics.
func FromStoreHealth(health store.Health) *DatabaseStats {
	byStatus := make(map[string]int, len(health.ByStatus))
	for status, count := range health.ByStatus {
		byStatus[string(status)] = count
	}
	return &DatabaseStats{
		Visions:   health.Visions,
		Responses: health.Responses,
		ByStatus:  byStatus,
	}
}

func categoryStrings(categories []lexicon.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, string(c))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
