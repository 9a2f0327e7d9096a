package synthesis

import (
	"context"
	"log/slog"

	"envision/internal/logging"
	"envision/internal/vision"
)

// AudioGenerator turns a completed session into a meditation. It is invoked
// once per successful full synthesis.
type AudioGenerator interface {
	Generate(ctx context.Context, session *vision.Session) error
}

// NoopAudio records that a meditation would have been generated.
type NoopAudio struct {
	Logger *slog.Logger
}

// Generate logs the hand-off and returns nil.
func (n NoopAudio) Generate(ctx context.Context, session *vision.Session) error {
	if session == nil {
		return nil
	}
	logging.WithContext(ctx, logging.NewComponentLogger(n.Logger, "audio")).Info("meditation audio generation skipped",
		logging.String("reason", "no audio generator configured"),
		logging.Int("responses", len(session.Responses)),
	)
	return nil
}
