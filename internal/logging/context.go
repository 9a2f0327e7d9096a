package logging

import (
	"context"
	"log/slog"

	"envision/internal/services"
)

const (
	// FieldComponent names the subsystem that emitted the record.
	FieldComponent = "component"
	// FieldVisionID identifies the vision session a record concerns.
	FieldVisionID = "vision_id"
	// FieldUserID identifies the authenticated user.
	FieldUserID = "user_id"
	// FieldTask names the background synthesis task kind.
	FieldTask = "task"
	// FieldCategory names the reflection category being scored or asked about.
	FieldCategory = "category"
	// FieldCorrelationID is the request correlation identifier.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a record for dashboards and grep.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldErrorCode carries the stable API error code.
	FieldErrorCode = "error_code"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision recorded by DecisionAttrs.
	FieldDecisionType = "decision_type"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.VisionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldVisionID, id))
	}
	if id, ok := services.UserIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUserID, id))
	}
	if task, ok := services.TaskFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTask, task))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
