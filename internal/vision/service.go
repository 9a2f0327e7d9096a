package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"envision/internal/analyzer"
	"envision/internal/css"
	"envision/internal/lexicon"
	"envision/internal/logging"
	"envision/internal/questions"
	"envision/internal/services"
)

const component = "vision"

// AnswerAnalyzer extracts signals from an answer. *analyzer.Analyzer satisfies it.
type AnswerAnalyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) css.Analysis
}

// QuestionGenerator picks the next category and phrases a question for it.
// *questions.Controller satisfies it.
type QuestionGenerator interface {
	NextCategory(ctx context.Context, states map[lexicon.Category]questions.Snapshot) lexicon.Category
	GenerateNextQuestion(ctx context.Context, category lexicon.Category, prior []questions.Exchange, snapshot questions.Snapshot) (string, error)
}

// Submission is one answer posted by the user.
type Submission struct {
	Category lexicon.Category `json:"category"`
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
}

// SubmitResult is returned after an answer has been scored and stored.
type SubmitResult struct {
	ResponseID          string                       `json:"response_id"`
	CSS                 float64                      `json:"css"`
	DecisionBand        css.Band                     `json:"decision_band"`
	CategoriesAddressed []lexicon.Category           `json:"categories_addressed"`
	CategoriesUpdated   []lexicon.Category           `json:"categories_updated"`
	WeakestSignal       css.Signal                   `json:"weakest_signal"`
	OverallCompleteness int                          `json:"overall_completeness"`
	CSSScores           map[lexicon.Category]float64 `json:"css_scores"`
	FallbackAnalysis    bool                         `json:"fallback_analysis"`
}

// NextQuestion is the controller's choice of what to ask next.
type NextQuestion struct {
	Question string           `json:"question"`
	Category lexicon.Category `json:"category"`
}

// Service runs the vision workflow for API and CLI callers.
type Service struct {
	repo       Repository
	analyzer   AnswerAnalyzer
	questions  QuestionGenerator
	scheduler  Scheduler
	clock      func() time.Time
	newID      func() string
	pruneGrace time.Duration
	logger     *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithScheduler sets where background tasks are queued. Without one, no
// background work runs.
func WithScheduler(s Scheduler) Option {
	return func(svc *Service) { svc.scheduler = s }
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(svc *Service) {
		if clock != nil {
			svc.clock = clock
		}
	}
}

// WithIDGenerator overrides how session and response ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(svc *Service) {
		if gen != nil {
			svc.newID = gen
		}
	}
}

// WithPruneGrace sets how old an empty session must be before listing removes it.
func WithPruneGrace(d time.Duration) Option {
	return func(svc *Service) {
		if d >= 0 {
			svc.pruneGrace = d
		}
	}
}

// NewService wires the workflow.
func NewService(repo Repository, answers AnswerAnalyzer, generator QuestionGenerator, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		repo:       repo,
		analyzer:   answers,
		questions:  generator,
		clock:      func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		pruneGrace: 15 * time.Minute,
		logger:     logging.NewComponentLogger(logger, component),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create starts an empty processing session for userID.
func (s *Service) Create(ctx context.Context, userID string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, services.Wrap(services.ErrUnauthorized, component, "create", "user id required", nil)
	}
	session := NewSession(s.newID(), userID, s.clock())
	if err := s.repo.CreateVision(ctx, session); err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "create", "store session", err)
	}
	ctx = services.WithVisionID(services.WithUserID(ctx, userID), session.ID)
	logging.WithContext(ctx, s.logger).Info("vision session created")
	return session, nil
}

// List returns the user's sessions that hold at least one response. Empty
// sessions older than the prune grace are removed first; a failed prune is
// logged and does not fail the listing.
func (s *Service) List(ctx context.Context, userID string) ([]*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, services.Wrap(services.ErrUnauthorized, component, "list", "user id required", nil)
	}
	if _, err := s.Prune(ctx); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "empty session prune failed", "prune_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database permissions"),
			logging.String(logging.FieldImpact, "abandoned empty sessions remain stored"),
		)
	}
	sessions, err := s.repo.ListVisions(ctx, userID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "list", "load sessions", err)
	}
	if sessions == nil {
		sessions = []*Session{}
	}
	return sessions, nil
}

// Prune deletes empty sessions older than the prune grace.
func (s *Service) Prune(ctx context.Context) (int, error) {
	removed, err := s.repo.PruneEmpty(ctx, s.clock().Add(-s.pruneGrace))
	if err != nil {
		return 0, services.Wrap(services.ErrPersistence, component, "prune", "remove empty sessions", err)
	}
	if removed > 0 {
		logging.WithContext(ctx, s.logger).Info("empty sessions pruned", logging.Int("removed", removed))
	}
	return removed, nil
}

// Get loads a session with its responses and category states.
func (s *Service) Get(ctx context.Context, userID, visionID string) (*Session, error) {
	return s.load(ctx, userID, visionID, "get")
}

// Delete removes a session and everything that belongs to it.
func (s *Service) Delete(ctx context.Context, userID, visionID string) error {
	if _, err := s.load(ctx, userID, visionID, "delete"); err != nil {
		return err
	}
	if err := s.repo.DeleteVision(ctx, visionID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return services.Wrap(services.ErrNotFound, component, "delete", "vision not found", nil)
		}
		return services.Wrap(services.ErrPersistence, component, "delete", "remove session", err)
	}
	ctx = services.WithVisionID(services.WithUserID(ctx, userID), visionID)
	logging.WithContext(ctx, s.logger).Info("vision session deleted")
	return nil
}

// SubmitResponse validates, analyzes, scores and stores one answer, then
// queues the background refresh tasks.
func (s *Service) SubmitResponse(ctx context.Context, userID, visionID string, sub Submission) (*SubmitResult, error) {
	sub.Question = strings.TrimSpace(sub.Question)
	sub.Answer = strings.TrimSpace(sub.Answer)
	if category, ok := lexicon.Parse(string(sub.Category)); ok {
		sub.Category = category
	} else {
		return nil, services.Wrap(services.ErrValidation, component, "submit", fmt.Sprintf("unknown category %q", sub.Category), nil)
	}
	if sub.Question == "" {
		return nil, services.Wrap(services.ErrValidation, component, "submit", "question is required", nil)
	}
	if sub.Answer == "" {
		return nil, services.Wrap(services.ErrValidation, component, "submit", "answer is required", nil)
	}

	session, err := s.load(ctx, userID, visionID, "submit")
	if err != nil {
		return nil, err
	}
	if session.Status != StatusProcessing {
		return nil, services.Wrap(services.ErrConflict, component, "submit", fmt.Sprintf("session is %s", session.Status), nil)
	}
	ctx = services.WithVisionID(services.WithUserID(ctx, userID), visionID)
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldCategory, string(sub.Category)))

	prior := session.ResponsesIn(sub.Category)
	previous := make([]analyzer.Exchange, 0, len(prior))
	for _, r := range prior {
		previous = append(previous, analyzer.Exchange{Question: r.Question, Answer: r.Answer})
	}
	analysis := s.analyzer.Analyze(ctx, analyzer.Request{
		Category: sub.Category,
		Question: sub.Question,
		Answer:   sub.Answer,
		Previous: previous,
	})

	now := s.clock()
	outcome := Aggregate(session, sub.Category, sub.Answer, analysis, now)
	response := Response{
		ID:        s.newID(),
		VisionID:  visionID,
		Category:  sub.Category,
		Question:  sub.Question,
		Answer:    sub.Answer,
		CreatedAt: now,
	}
	states := make(map[lexicon.Category]CategoryState, len(outcome.Updated))
	for _, category := range outcome.Updated {
		states[category] = session.CategoryStates[category]
	}
	err = s.repo.SaveScoredResponse(ctx, ScoredResponse{
		VisionID:            visionID,
		Response:            response,
		States:              states,
		OverallCompleteness: session.OverallCompleteness,
		UpdatedAt:           now,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, component, "submit", "vision was deleted", nil)
		}
		return nil, services.Wrap(services.ErrPersistence, component, "submit", "store scored response", err)
	}

	logger.Info("answer scored",
		logging.Args(append(logging.DecisionAttrs("decision_band", string(outcome.Result.Band), string(analysis.WeakestSignal)),
			logging.Float64("css", outcome.Result.CSS),
			logging.Int("overall_completeness", session.OverallCompleteness),
			logging.Int("categories_updated", len(outcome.Updated)),
			logging.Bool("fallback_analysis", analysis.Fallback),
		)...)...)

	if len(session.Responses) == 0 {
		s.enqueue(ctx, visionID, TaskTitle)
	}
	s.enqueue(ctx, visionID, TaskSummary)

	addressed := analysis.CategoriesAddressed
	if addressed == nil {
		addressed = []lexicon.Category{}
	}
	return &SubmitResult{
		ResponseID:          response.ID,
		CSS:                 outcome.Result.CSS,
		DecisionBand:        outcome.Result.Band,
		CategoriesAddressed: addressed,
		CategoriesUpdated:   outcome.Updated,
		WeakestSignal:       analysis.WeakestSignal,
		OverallCompleteness: session.OverallCompleteness,
		CSSScores:           session.CSSScores(),
		FallbackAnalysis:    analysis.Fallback,
	}, nil
}

// NextQuestion selects the weakest category and generates a question for it.
func (s *Service) NextQuestion(ctx context.Context, userID, visionID string) (*NextQuestion, error) {
	session, err := s.load(ctx, userID, visionID, "next question")
	if err != nil {
		return nil, err
	}
	ctx = services.WithVisionID(services.WithUserID(ctx, userID), visionID)
	snapshots := session.Snapshots()
	category := s.questions.NextCategory(ctx, snapshots)

	prior := session.ResponsesIn(category)
	exchanges := make([]questions.Exchange, 0, len(prior))
	for _, r := range prior {
		exchanges = append(exchanges, questions.Exchange{Question: r.Question, Answer: r.Answer})
	}
	question, err := s.questions.GenerateNextQuestion(ctx, category, exchanges, snapshots[category])
	if err != nil {
		return nil, err
	}
	return &NextQuestion{Question: question, Category: category}, nil
}

// Process queues the full synthesis. The session must still be processing
// and hold at least one response.
func (s *Service) Process(ctx context.Context, userID, visionID string) error {
	session, err := s.load(ctx, userID, visionID, "process")
	if err != nil {
		return err
	}
	if session.Status != StatusProcessing {
		return services.Wrap(services.ErrConflict, component, "process", fmt.Sprintf("session is already %s", session.Status), nil)
	}
	if len(session.Responses) == 0 {
		return services.Wrap(services.ErrValidation, component, "process", "session has no responses", nil)
	}
	ctx = services.WithVisionID(services.WithUserID(ctx, userID), visionID)
	if s.scheduler == nil || !s.scheduler.Enqueue(visionID, TaskSynthesis) {
		return services.Wrap(services.ErrProviderUnavailable, component, "process", "synthesis queue unavailable", nil)
	}
	logging.WithContext(ctx, s.logger).Info("synthesis queued",
		logging.String(logging.FieldTask, string(TaskSynthesis)))
	return nil
}

func (s *Service) load(ctx context.Context, userID, visionID, op string) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, services.Wrap(services.ErrUnauthorized, component, op, "user id required", nil)
	}
	if strings.TrimSpace(visionID) == "" {
		return nil, services.Wrap(services.ErrValidation, component, op, "vision id required", nil)
	}
	session, err := s.repo.GetVision(ctx, visionID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, op, "load session", err)
	}
	// Sessions of other users are reported as missing.
	if session == nil || session.UserID != userID {
		return nil, services.Wrap(services.ErrNotFound, component, op, "vision not found", nil)
	}
	return session, nil
}

func (s *Service) enqueue(ctx context.Context, visionID string, kind TaskKind) {
	if s.scheduler == nil {
		return
	}
	if !s.scheduler.Enqueue(visionID, kind) {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "background task dropped", "task_dropped",
			logging.String(logging.FieldTask, string(kind)),
			logging.String(logging.FieldErrorHint, "raise workflow.queue_size or synthesis_workers"),
			logging.String(logging.FieldImpact, "title or summary stays stale until the next answer"),
		)
	}
}
