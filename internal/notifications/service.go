package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"envision/internal/config"
)

const userAgent = "Envision/0.1.0"

// Service defines the notification surface used by the synthesis worker.
type Service interface {
	NotifySynthesisCompleted(ctx context.Context, visionID, title string, completeness int) error
	NotifySynthesisFailed(ctx context.Context, visionID string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySynthesisCompleted(ctx context.Context, visionID, title string, completeness int) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled vision"
	}
	data := payload{
		title:   "Envision - Vision Ready",
		message: fmt.Sprintf("%s\n%d%% complete (%s)", title, completeness, shortID(visionID)),
		tags:    []string{"envision", "synthesis", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySynthesisFailed(ctx context.Context, visionID string, err error) error {
	var builder strings.Builder
	builder.WriteString("Synthesis failed for ")
	builder.WriteString(shortID(visionID))
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Envision - Synthesis Failed",
		message:  builder.String(),
		tags:     []string{"envision", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Envision - Test",
		message:  "Notification system test",
		tags:     []string{"envision", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) NotifySynthesisCompleted(context.Context, string, string, int) error { return nil }
func (noopService) NotifySynthesisFailed(context.Context, string, error) error          { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }
