package services_test

import (
	"context"
	"testing"

	"envision/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithVisionID(ctx, "v-1")
	ctx = services.WithUserID(ctx, "user-9")
	ctx = services.WithTask(ctx, "summary")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.VisionIDFromContext(ctx); !ok || id != "v-1" {
		t.Fatalf("unexpected vision id: %v %v", id, ok)
	}
	if id, ok := services.UserIDFromContext(ctx); !ok || id != "user-9" {
		t.Fatalf("unexpected user id: %v %v", id, ok)
	}
	if task, ok := services.TaskFromContext(ctx); !ok || task != "summary" {
		t.Fatalf("unexpected task: %v %v", task, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithVisionID(ctx, "")
	ctx = services.WithTask(ctx, "")
	if _, ok := services.VisionIDFromContext(ctx); ok {
		t.Fatal("expected no vision id value")
	}
	if _, ok := services.TaskFromContext(ctx); ok {
		t.Fatal("expected no task value")
	}
}
