package vision

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"envision/internal/analyzer"
	"envision/internal/css"
	"envision/internal/lexicon"
	"envision/internal/logging"
	"envision/internal/questions"
	"envision/internal/services"
)

type memRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session
	saveErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[string]*Session)}
}

func cloneSession(s *Session) *Session {
	out := *s
	out.Categories = append([]string{}, s.Categories...)
	out.Responses = append([]Response{}, s.Responses...)
	out.CategoryStates = make(map[lexicon.Category]CategoryState, len(s.CategoryStates))
	for k, v := range s.CategoryStates {
		out.CategoryStates[k] = v
	}
	out.ResponseCount = len(out.Responses)
	return &out
}

func (r *memRepo) CreateVision(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *memRepo) GetVision(_ context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

func (r *memRepo) ListVisions(_ context.Context, userID string) ([]*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.UserID == userID && len(s.Responses) > 0 {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) DeleteVision(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return services.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memRepo) PruneEmpty(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if len(s.Responses) == 0 && s.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memRepo) SaveScoredResponse(_ context.Context, scored ScoredResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	s, ok := r.sessions[scored.VisionID]
	if !ok {
		return fmt.Errorf("save: %w", services.ErrNotFound)
	}
	s.Responses = append(s.Responses, scored.Response)
	for k, v := range scored.States {
		s.CategoryStates[k] = v
	}
	s.OverallCompleteness = scored.OverallCompleteness
	s.UpdatedAt = scored.UpdatedAt
	return nil
}

func (r *memRepo) UpdateTitle(context.Context, string, string, []string, time.Time) error {
	return nil
}

func (r *memRepo) UpdateSummary(context.Context, string, string, string, time.Time) error {
	return nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id string, status Status, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return services.ErrNotFound
	}
	s.Status = status
	return nil
}

type recordingAnalyzer struct {
	analysis css.Analysis
	requests []analyzer.Request
}

func (a *recordingAnalyzer) Analyze(_ context.Context, req analyzer.Request) css.Analysis {
	a.requests = append(a.requests, req)
	return a.analysis
}

type recordingScheduler struct {
	accept bool
	tasks  []TaskKind
}

func (s *recordingScheduler) Enqueue(_ string, kind TaskKind) bool {
	s.tasks = append(s.tasks, kind)
	return s.accept
}

type cannedText struct {
	reply   string
	err     error
	prompts []string
}

func (c *cannedText) CompleteText(_ context.Context, _, user string) (string, error) {
	c.prompts = append(c.prompts, user)
	return c.reply, c.err
}

type fixture struct {
	svc       *Service
	repo      *memRepo
	analyzer  *recordingAnalyzer
	scheduler *recordingScheduler
	text      *cannedText
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      newMemRepo(),
		analyzer:  &recordingAnalyzer{analysis: crossTaggedAnalysis()},
		scheduler: &recordingScheduler{accept: true},
		text:      &cannedText{reply: "What does the room smell like on that morning?"},
		now:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	seq := 0
	f.svc = NewService(f.repo, f.analyzer, questions.NewController(f.text, 2, logging.NewNop()), logging.NewNop(),
		WithScheduler(f.scheduler),
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
		WithPruneGrace(15*time.Minute),
	)
	return f
}

func (f *fixture) create(t *testing.T, userID string) *Session {
	t.Helper()
	session, err := f.svc.Create(context.Background(), userID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return session
}

func (f *fixture) submit(t *testing.T, visionID string, sub Submission) *SubmitResult {
	t.Helper()
	res, err := f.svc.SubmitResponse(context.Background(), "u1", visionID, sub)
	if err != nil {
		t.Fatalf("SubmitResponse failed: %v", err)
	}
	return res
}

func expectErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func TestSubmitResponseScoresStoresAndQueues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.create(t, "u1")
	if session.Status != StatusProcessing {
		t.Fatalf("new session status = %s", session.Status)
	}

	res := f.submit(t, session.ID, Submission{
		Category: "Vision",
		Question: "What do you see?",
		Answer:   words(40),
	})
	if res.CSS != 0.39 || res.DecisionBand != css.BandEvoke {
		t.Fatalf("expected 0.39 EVOKE, got %v %s", res.CSS, res.DecisionBand)
	}
	if !slices.Equal(res.CategoriesAddressed, []lexicon.Category{lexicon.CategoryIdentity}) {
		t.Fatalf("addressed = %v", res.CategoriesAddressed)
	}
	if !slices.Equal(res.CategoriesUpdated, []lexicon.Category{lexicon.CategoryVision, lexicon.CategoryIdentity}) {
		t.Fatalf("updated = %v", res.CategoriesUpdated)
	}
	if res.WeakestSignal != css.SignalRichness || res.OverallCompleteness != 15 {
		t.Fatalf("weakest %q completeness %d", res.WeakestSignal, res.OverallCompleteness)
	}
	if len(res.CSSScores) != 5 || res.CSSScores[lexicon.CategoryIdentity] != 0.38 || res.CSSScores[lexicon.CategoryEmbodiment] != 0 {
		t.Fatalf("css scores = %v", res.CSSScores)
	}
	if !slices.Equal(f.scheduler.tasks, []TaskKind{TaskTitle, TaskSummary}) {
		t.Fatalf("queued tasks = %v", f.scheduler.tasks)
	}

	stored, err := f.svc.Get(ctx, "u1", session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Responses) != 1 || stored.Responses[0].Category != lexicon.CategoryVision {
		t.Fatalf("stored responses = %+v", stored.Responses)
	}
	if stored.OverallCompleteness != 15 || len(stored.CategoryStates) != 2 {
		t.Fatalf("stored completeness %d states %d", stored.OverallCompleteness, len(stored.CategoryStates))
	}

	f.submit(t, session.ID, Submission{
		Category: lexicon.CategoryVision,
		Question: "Who is with you?",
		Answer:   "my sister",
	})
	if !slices.Equal(f.scheduler.tasks, []TaskKind{TaskTitle, TaskSummary, TaskSummary}) {
		t.Fatalf("queued tasks = %v", f.scheduler.tasks)
	}
	if len(f.analyzer.requests) != 2 {
		t.Fatalf("expected two analyses, got %d", len(f.analyzer.requests))
	}
	want := []analyzer.Exchange{{Question: "What do you see?", Answer: words(40)}}
	if !reflect.DeepEqual(f.analyzer.requests[1].Previous, want) {
		t.Fatalf("previous = %+v, want %+v", f.analyzer.requests[1].Previous, want)
	}
}

func TestSubmitResponsePassesWholeCategoryHistory(t *testing.T) {
	f := newFixture(t)
	session := f.create(t, "u1")
	for i := 1; i <= 6; i++ {
		f.submit(t, session.ID, Submission{
			Category: lexicon.CategoryVision,
			Question: fmt.Sprintf("vision question %d?", i),
			Answer:   fmt.Sprintf("vision answer %d", i),
		})
	}
	f.submit(t, session.ID, Submission{Category: lexicon.CategoryEmotion, Question: "How do you feel?", Answer: "light"})
	f.submit(t, session.ID, Submission{Category: lexicon.CategoryVision, Question: "Anything else?", Answer: "the sea"})

	last := f.analyzer.requests[len(f.analyzer.requests)-1]
	if len(last.Previous) != 6 {
		t.Fatalf("expected all 6 earlier vision answers, got %d", len(last.Previous))
	}
	for i, ex := range last.Previous {
		if want := fmt.Sprintf("vision answer %d", i+1); ex.Answer != want {
			t.Fatalf("previous[%d] = %q, want %q", i, ex.Answer, want)
		}
	}
}

func TestSubmitResponseValidatesBeforeWork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.create(t, "u1")

	cases := []Submission{
		{Category: "career", Question: "q?", Answer: "a"},
		{Category: lexicon.CategoryEmotion, Question: "q?", Answer: "   "},
		{Category: lexicon.CategoryEmotion, Question: "", Answer: "a"},
	}
	for _, sub := range cases {
		_, err := f.svc.SubmitResponse(ctx, "u1", session.ID, sub)
		expectErrorIs(t, err, services.ErrValidation)
	}
	if len(f.analyzer.requests) != 0 || len(f.scheduler.tasks) != 0 {
		t.Fatalf("invalid submissions did work: %d analyses, %v tasks", len(f.analyzer.requests), f.scheduler.tasks)
	}
}

func TestSubmitResponseHidesOtherUsersSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.create(t, "u1")

	_, err := f.svc.SubmitResponse(ctx, "u2", session.ID, Submission{Category: lexicon.CategoryVision, Question: "q?", Answer: "a"})
	expectErrorIs(t, err, services.ErrNotFound)
	_, err = f.svc.Get(ctx, "u1", "missing")
	expectErrorIs(t, err, services.ErrNotFound)
	_, err = f.svc.Get(ctx, "", session.ID)
	expectErrorIs(t, err, services.ErrUnauthorized)
}

func TestSubmitResponsePersistenceFailureLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.create(t, "u1")
	f.repo.saveErr = errors.New("disk full")

	_, err := f.svc.SubmitResponse(ctx, "u1", session.ID, Submission{Category: lexicon.CategoryVision, Question: "q?", Answer: words(10)})
	expectErrorIs(t, err, services.ErrPersistence)
	if status := services.HTTPStatus(err); status != 500 {
		t.Fatalf("expected 500, got %d", status)
	}

	stored, err := f.svc.Get(ctx, "u1", session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Responses) != 0 || len(stored.CategoryStates) != 0 || stored.OverallCompleteness != 0 {
		t.Fatalf("session changed after failed save: %+v", stored)
	}
	if len(f.scheduler.tasks) != 0 {
		t.Fatalf("tasks queued after failed save: %v", f.scheduler.tasks)
	}
}

func TestSubmitResponseRejectsSettledSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.create(t, "u1")
	if err := f.repo.UpdateStatus(ctx, session.ID, StatusCompleted, f.now); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	_, err := f.svc.SubmitResponse(ctx, "u1", session.ID, Submission{Category: lexicon.CategoryVision, Question: "q?", Answer: "a"})
	expectErrorIs(t, err, services.ErrConflict)
}

func TestListExcludesEmptySessionsAndPrunesStaleOnes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.create(t, "u1")
	answered := f.create(t, "u1")
	f.submit(t, answered.ID, Submission{Category: lexicon.CategoryBelief, Question: "q?", Answer: "I can do this"})

	f.now = f.now.Add(5 * time.Minute)
	fresh := f.create(t, "u1")

	f.now = f.now.Add(11 * time.Minute)
	list, err := f.svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != answered.ID {
		t.Fatalf("expected only the answered session, got %d sessions", len(list))
	}

	_, err = f.svc.Get(ctx, "u1", stale.ID)
	expectErrorIs(t, err, services.ErrNotFound)
	if _, err := f.svc.Get(ctx, "u1", fresh.ID); err != nil {
		t.Fatalf("fresh empty session should survive pruning: %v", err)
	}

	others, err := f.svc.List(ctx, "u2")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if others == nil || len(others) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", others)
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.create(t, "u1")

	expectErrorIs(t, f.svc.Delete(ctx, "u2", session.ID), services.ErrNotFound)
	if err := f.svc.Delete(ctx, "u1", session.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	expectErrorIs(t, f.svc.Delete(ctx, "u1", session.ID), services.ErrNotFound)
}

func TestProcessQueuesSynthesisOnlyWhileProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.create(t, "u1")

	expectErrorIs(t, f.svc.Process(ctx, "u1", session.ID), services.ErrValidation)

	f.submit(t, session.ID, Submission{Category: lexicon.CategoryVision, Question: "q?", Answer: "a lake"})
	if err := f.svc.Process(ctx, "u1", session.ID); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if last := f.scheduler.tasks[len(f.scheduler.tasks)-1]; last != TaskSynthesis {
		t.Fatalf("last queued task = %s", last)
	}

	f.scheduler.accept = false
	expectErrorIs(t, f.svc.Process(ctx, "u1", session.ID), services.ErrProviderUnavailable)

	if err := f.repo.UpdateStatus(ctx, session.ID, StatusFailed, f.now); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	err := f.svc.Process(ctx, "u1", session.ID)
	expectErrorIs(t, err, services.ErrConflict)
	if status := services.HTTPStatus(err); status != 409 {
		t.Fatalf("expected 409, got %d", status)
	}
}

func TestNextQuestionTargetsWeakestCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.create(t, "u1")

	next, err := f.svc.NextQuestion(ctx, "u1", session.ID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if next.Category != lexicon.CategoryVision || next.Question != "What does the room smell like on that morning?" {
		t.Fatalf("unexpected next question %+v", next)
	}

	f.submit(t, session.ID, Submission{Category: lexicon.CategoryVision, Question: "q?", Answer: words(40)})

	next, err = f.svc.NextQuestion(ctx, "u1", session.ID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if next.Category != lexicon.CategoryEmotion {
		t.Fatalf("expected emotion next, got %s", next.Category)
	}
}

func TestNextQuestionSurfacesProviderFailure(t *testing.T) {
	f := newFixture(t)
	session := f.create(t, "u1")
	f.text.err = errors.New("503")

	_, err := f.svc.NextQuestion(context.Background(), "u1", session.ID)
	expectErrorIs(t, err, services.ErrProviderUnavailable)
	if status := services.HTTPStatus(err); status != 502 {
		t.Fatalf("expected 502, got %d", status)
	}
}
