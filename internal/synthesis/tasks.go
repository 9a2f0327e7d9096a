package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"envision/internal/logging"
	"envision/internal/services"
	"envision/internal/services/llm"
	"envision/internal/vision"
)

// errGone marks a session that disappeared while its task was queued or running.
var errGone = errors.New("vision session no longer exists")

func withTaskContext(ctx context.Context, key taskKey) context.Context {
	return services.WithTask(services.WithVisionID(ctx, key.visionID), string(key.kind))
}

func (w *Worker) load(ctx context.Context, visionID string) (*vision.Session, error) {
	session, err := w.repo.GetVision(ctx, visionID)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "synthesis", "load", "read session", err)
	}
	if session == nil {
		return nil, errGone
	}
	return session, nil
}

func (w *Worker) runTitle(ctx context.Context, logger *slog.Logger, visionID string) error {
	session, err := w.load(ctx, visionID)
	if err != nil {
		return err
	}
	if len(session.Responses) == 0 {
		logger.Debug("title skipped", logging.String("reason", "no responses"))
		return nil
	}
	var reply titleReply
	if err := w.complete(ctx, titleSystemPrompt, buildTitlePrompt(session.Responses[0]), &reply); err != nil {
		return err
	}
	title, labels := normalizeTitle(reply)
	if title == "" {
		return services.Wrap(services.ErrProviderUnavailable, "synthesis", "title", "provider returned an empty title", nil)
	}
	if err := w.repo.UpdateTitle(ctx, visionID, title, labels, w.clock()); err != nil {
		return writeError("title", err)
	}
	logger.Info("vision title generated",
		logging.String("title", title),
		logging.Int("labels", len(labels)),
	)
	return nil
}

func (w *Worker) runSummary(ctx context.Context, logger *slog.Logger, visionID string) error {
	session, err := w.load(ctx, visionID)
	if err != nil {
		return err
	}
	if len(session.Responses) == 0 {
		logger.Debug("summary skipped", logging.String("reason", "no responses"))
		return nil
	}
	summary, tagline, err := w.summarize(ctx, session)
	if err != nil {
		return err
	}
	if err := w.repo.UpdateSummary(ctx, visionID, summary, tagline, w.clock()); err != nil {
		return writeError("summary", err)
	}
	logger.Info("vision summary refreshed", logging.Int("responses", len(session.Responses)))
	return nil
}

// runSynthesis writes the final summary and settles the status. A failed
// summary marks the session failed; a failed audio hand-off does not.
func (w *Worker) runSynthesis(ctx context.Context, logger *slog.Logger, visionID string) error {
	session, err := w.load(ctx, visionID)
	if err != nil {
		return err
	}
	if session.Status != vision.StatusProcessing {
		logger.Info("synthesis skipped",
			logging.Args(logging.DecisionAttrs("synthesis", "skip", "session already "+string(session.Status))...)...)
		return nil
	}

	summary, tagline, err := w.summarize(ctx, session)
	if err == nil {
		err = w.repo.UpdateSummary(ctx, visionID, summary, tagline, w.clock())
		if err != nil {
			err = writeError("synthesis", err)
		}
	}
	if err != nil {
		if !errors.Is(err, errGone) {
			settleCtx := context.WithoutCancel(ctx)
			if statusErr := w.repo.UpdateStatus(settleCtx, visionID, vision.StatusFailed, w.clock()); statusErr != nil {
				logging.WarnWithContext(logger, "failed to mark vision failed", "status_update_failed",
					logging.Error(statusErr),
					logging.String(logging.FieldImpact, "session stays in processing"),
				)
			}
			w.notify(logger, w.opts.Notifier.NotifySynthesisFailed(settleCtx, visionID, err))
		}
		return err
	}

	if err := w.repo.UpdateStatus(ctx, visionID, vision.StatusCompleted, w.clock()); err != nil {
		return writeError("synthesis", err)
	}
	summaryCopy, taglineCopy := summary, tagline
	session.Summary = &summaryCopy
	session.Tagline = &taglineCopy
	session.Status = vision.StatusCompleted
	logger.Info("vision synthesis completed",
		logging.Args(logging.DecisionAttrs("synthesis", string(vision.StatusCompleted), "summary stored")...)...)

	w.notify(logger, w.opts.Notifier.NotifySynthesisCompleted(ctx, visionID, session.Title, session.OverallCompleteness))

	if err := w.audio.Generate(ctx, session); err != nil {
		logging.WarnWithContext(logger, "meditation audio generation failed", "audio_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the audio generator"),
			logging.String(logging.FieldImpact, "vision is completed without audio"),
		)
	}
	return nil
}

func (w *Worker) notify(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "synthesis notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
	)
}

func (w *Worker) summarize(ctx context.Context, session *vision.Session) (string, string, error) {
	var reply summaryReply
	if err := w.complete(ctx, summarySystemPrompt, buildSummaryPrompt(session), &reply); err != nil {
		return "", "", err
	}
	summary, tagline := normalizeSummary(reply)
	if summary == "" || tagline == "" {
		return "", "", services.Wrap(services.ErrProviderUnavailable, "synthesis", "summary", "provider returned an incomplete summary", nil)
	}
	return summary, tagline, nil
}

func (w *Worker) complete(ctx context.Context, system, user string, target any) error {
	if w.provider == nil {
		return services.Wrap(services.ErrProviderUnavailable, "synthesis", "complete", "summarizer not configured", nil)
	}
	content, err := w.provider.CompleteJSON(ctx, system, user)
	if err != nil {
		return services.Wrap(services.ErrProviderUnavailable, "synthesis", "complete", "summarizer request failed", err)
	}
	if err := llm.DecodeLLMJSON(content, target); err != nil {
		return services.Wrap(services.ErrProviderUnavailable, "synthesis", "complete", "malformed summarizer reply", err)
	}
	return nil
}

func writeError(op string, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, errGone)
	}
	return services.Wrap(services.ErrPersistence, "synthesis", op, "write session", err)
}

func (w *Worker) handleTaskFailure(logger *slog.Logger, key taskKey, err error) {
	if errors.Is(err, errGone) {
		logger.Info("synthesis task dropped",
			logging.Args(logging.DecisionAttrs("task_write", "noop", "vision deleted")...)...)
		return
	}
	impact := "title or summary stays stale until the next answer"
	if key.kind == vision.TaskSynthesis {
		impact = "vision marked failed"
	}
	logging.ErrorWithContext(logger, "synthesis task failed", "synthesis_task_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorCode, services.ErrorCode(err)),
		logging.String(logging.FieldErrorHint, "check llm settings and connectivity"),
		logging.String(logging.FieldImpact, impact),
		logging.Alert("synthesis_failure"),
	)
}
