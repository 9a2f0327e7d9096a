package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Coverage mirrors the slot coverage of a category state.
type Coverage struct {
	Hits     []string `json:"hits"`
	Required int      `json:"required"`
	Met      bool     `json:"met"`
}

// Subscores are the weighted channel contributions of a category score.
type Subscores struct {
	LengthCoverage float64 `json:"length_coverage"`
	Specificity    float64 `json:"specificity"`
	Richness       float64 `json:"richness"`
	ActionIdentity float64 `json:"action_identity"`
	Coherence      float64 `json:"coherence"`
}

// CategoryState is the latest score of one category.
type CategoryState struct {
	CSS           float64   `json:"css"`
	Coverage      Coverage  `json:"coverage"`
	Subscores     Subscores `json:"subscores"`
	DecisionBand  string    `json:"decision_band"`
	WeakestSignal string    `json:"weakest_signal"`
	LastScoredAt  string    `json:"last_scored_at,omitempty"`
}

// Response is one answered question.
type Response struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at,omitempty"`
}

// VisionSummary is a session as shown in listings.
type VisionSummary struct {
	ID                  string                   `json:"id"`
	Title               string                   `json:"title"`
	Categories          []string                 `json:"categories"`
	OverallCompleteness int                      `json:"overall_completeness"`
	CSSScores           map[string]float64       `json:"css_scores"`
	CategoryStates      map[string]CategoryState `json:"category_states"`
	Summary             *string                  `json:"summary"`
	Tagline             *string                  `json:"tagline"`
	Status              string                   `json:"status"`
	ResponseCount       int                      `json:"response_count"`
	CreatedAt           string                   `json:"created_at,omitempty"`
	UpdatedAt           string                   `json:"updated_at,omitempty"`
}

// Vision is a full session including its ordered responses.
type Vision struct {
	VisionSummary
	UserID    string     `json:"user_id"`
	Responses []Response `json:"responses"`
}

// VisionResponse wraps a single session.
type VisionResponse struct {
	Vision Vision `json:"vision"`
}

// VisionListResponse wraps a session listing.
type VisionListResponse struct {
	Visions []VisionSummary `json:"visions"`
}

// SubmitRequest is the body of POST /visions/{id}/response.
type SubmitRequest struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SubmitResponse is the scoring outcome of one answer.
type SubmitResponse struct {
	OverallCompleteness int                `json:"overall_completeness"`
	CSSScores           map[string]float64 `json:"css_scores"`
	CSS                 float64            `json:"css"`
	DecisionBand        string             `json:"decision_band"`
	CategoriesAddressed []string           `json:"categories_addressed"`
	CategoriesUpdated   []string           `json:"categories_updated"`
	WeakestSignal       string             `json:"weakest_signal"`
	FallbackAnalysis    bool               `json:"fallback_analysis"`
}

// NextQuestionResponse carries the next question and the category it probes.
type NextQuestionResponse struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// ProcessResponse acknowledges a queued synthesis.
type ProcessResponse struct {
	Status string `json:"status"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status   string         `json:"status"`
	Worker   *WorkerStatus  `json:"worker,omitempty"`
	Database *DatabaseStats `json:"database,omitempty"`
}

// WorkerStatus summarizes the synthesis worker.
type WorkerStatus struct {
	Running   bool   `json:"running"`
	Pending   int    `json:"pending"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}

// DatabaseStats summarizes stored sessions.
type DatabaseStats struct {
	Visions   int            `json:"visions"`
	Responses int            `json:"responses"`
	ByStatus  map[string]int `json:"by_status"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
