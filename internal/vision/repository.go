package vision

import (
	"context"
	"time"

	"envision/internal/lexicon"
)

// ScoredResponse is everything one submission writes. Repositories persist it
// atomically: either all of it lands or none of it does.
type ScoredResponse struct {
	VisionID            string
	Response            Response
	States              map[lexicon.Category]CategoryState
	OverallCompleteness int
	UpdatedAt           time.Time
}

// Repository persists vision sessions. Getters return (nil, nil) when the
// session does not exist; writers against a missing session return an error
// matching services.ErrNotFound.
type Repository interface {
	CreateVision(ctx context.Context, session *Session) error
	GetVision(ctx context.Context, id string) (*Session, error)
	// ListVisions returns the user's sessions that have at least one
	// response, newest first. Responses are not loaded; ResponseCount is.
	ListVisions(ctx context.Context, userID string) ([]*Session, error)
	DeleteVision(ctx context.Context, id string) error
	// PruneEmpty removes sessions without responses created before cutoff.
	PruneEmpty(ctx context.Context, cutoff time.Time) (int, error)
	SaveScoredResponse(ctx context.Context, scored ScoredResponse) error
	UpdateTitle(ctx context.Context, id, title string, categories []string, now time.Time) error
	UpdateSummary(ctx context.Context, id, summary, tagline string, now time.Time) error
	UpdateStatus(ctx context.Context, id string, status Status, now time.Time) error
}

// TaskKind names a background task.
type TaskKind string

const (
	// TaskTitle generates the title and category labels after the first response.
	TaskTitle TaskKind = "title"
	// TaskSummary refreshes the summary and tagline after every response.
	TaskSummary TaskKind = "summary"
	// TaskSynthesis runs the full synthesis and settles the session status.
	TaskSynthesis TaskKind = "synthesis"
)

// Scheduler accepts background tasks. Enqueue reports whether the task was
// accepted; a task already pending for the same session and kind counts as
// accepted.
type Scheduler interface {
	Enqueue(visionID string, kind TaskKind) bool
}
