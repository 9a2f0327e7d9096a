package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"envision/internal/config"
	"envision/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func ntfyServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySynthesisCompleted(context.Background(), "v1", "Title", 40); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, requests := ntfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	if err := svc.NotifySynthesisCompleted(ctx, "0123456789abcdef", "Seaside Bakery Mornings", 64); err != nil {
		t.Fatalf("NotifySynthesisCompleted: %v", err)
	}
	if err := svc.NotifySynthesisFailed(ctx, "0123456789abcdef", errors.New("provider unavailable")); err != nil {
		t.Fatalf("NotifySynthesisFailed: %v", err)
	}

	got := requests()
	if len(got) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(got))
	}
	if got[0].title != "Envision - Vision Ready" || got[0].tags != "envision,synthesis,completed" {
		t.Fatalf("unexpected completion headers: %+v", got[0])
	}
	if !strings.Contains(got[0].body, "Seaside Bakery Mornings") || !strings.Contains(got[0].body, "64% complete (01234567)") {
		t.Fatalf("unexpected completion body: %q", got[0].body)
	}
	if got[0].priority != "" {
		t.Fatalf("expected default priority, got %q", got[0].priority)
	}
	if got[1].priority != "high" || !strings.Contains(got[1].body, "provider unavailable") {
		t.Fatalf("unexpected failure payload: %+v", got[1])
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := ntfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
