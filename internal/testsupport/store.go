package testsupport

import (
	"context"
	"testing"
	"time"

	"envision/internal/config"
	"envision/internal/css"
	"envision/internal/lexicon"
	"envision/internal/store"
	"envision/internal/vision"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewVision creates an empty session for userID.
func NewVision(t testing.TB, st *store.Store, id, userID string, createdAt time.Time) *vision.Session {
	t.Helper()

	session := vision.NewSession(id, userID, createdAt)
	if err := st.CreateVision(context.Background(), session); err != nil {
		t.Fatalf("store.CreateVision: %v", err)
	}
	return session
}

// AddResponse scores answer with analysis and saves it the way the service does.
func AddResponse(t testing.TB, st *store.Store, visionID, responseID string, category lexicon.Category, answer string, analysis css.Analysis, at time.Time) *vision.Session {
	t.Helper()

	ctx := context.Background()
	session, err := st.GetVision(ctx, visionID)
	if err != nil || session == nil {
		t.Fatalf("store.GetVision(%s): %v", visionID, err)
	}
	outcome := vision.Aggregate(session, category, answer, analysis, at)
	states := make(map[lexicon.Category]vision.CategoryState, len(outcome.Updated))
	for _, c := range outcome.Updated {
		states[c] = session.CategoryStates[c]
	}
	err = st.SaveScoredResponse(ctx, vision.ScoredResponse{
		VisionID: visionID,
		Response: vision.Response{
			ID:        responseID,
			VisionID:  visionID,
			Category:  category,
			Question:  "What do you notice?",
			Answer:    answer,
			CreatedAt: at,
		},
		States:              states,
		OverallCompleteness: session.OverallCompleteness,
		UpdatedAt:           at,
	})
	if err != nil {
		t.Fatalf("store.SaveScoredResponse: %v", err)
	}
	return session
}
