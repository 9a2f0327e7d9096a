package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func contentServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func TestClientHealthCheck(t *testing.T) {
	server := contentServer(t, "```json\n{\"ok\":true}\n```")
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
}

func TestCompleteJSONSendsHeadersAndFormat(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "Envision Analyzer" {
			t.Errorf("unexpected title header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{\"proposed_css\":0.4}"}}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Model: "m", Title: "Envision Analyzer"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `{"proposed_css":0.4}` {
		t.Fatalf("unexpected content %q", content)
	}
	if captured.ResponseFormat["type"] != "json_object" {
		t.Fatalf("expected json response format, got %v", captured.ResponseFormat)
	}
	if captured.Temperature != 0 {
		t.Fatalf("expected deterministic temperature, got %v", captured.Temperature)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
}

func TestCompleteTextOmitsResponseFormat(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"  What does the morning smell like?  "}}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	text, err := client.CompleteText(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if text != "What does the morning smell like?" {
		t.Fatalf("unexpected text %q", text)
	}
	if _, ok := raw["response_format"]; ok {
		t.Fatalf("expected no response_format for text completions, got %v", raw)
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	_, err := client.CompleteText(context.Background(), "s", "u")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewClient(Config{APIKey: "k"}).CompleteJSON(context.Background(), "", "u"); err == nil {
		t.Fatal("expected error for empty system prompt")
	}
}

func TestClientToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"finish_reason":"tool_calls","message":{"content":"","tool_calls":[{"function":{"arguments":"{\"ok\":true}"}}]}}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			_, _ = io.WriteString(w, `{"choices":[{"finish_reason":"length","message":{"content":""}}]}`)
		default:
			_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`)
		}
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithRetryMaxAttempts(3),
		WithRetryBackoff(100*time.Millisecond, time.Second),
		WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != 200*time.Millisecond {
		t.Fatalf("unexpected sleeps %v", sleeps)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad model")
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, WithSleeper(func(time.Duration) {}))
	_, err := client.CompleteText(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "bad model") {
		t.Fatalf("expected status error with body, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func slowFirstCallServer(t *testing.T, calls *atomic.Int32, delay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`)
	}))
}

func TestClientRetriesHTTPClientTimeout(t *testing.T) {
	var calls atomic.Int32
	server := slowFirstCallServer(t, &calls, 2*time.Second)
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithHTTPClient(&http.Client{Timeout: 100 * time.Millisecond}),
		WithRetryMaxAttempts(3),
		WithSleeper(func(time.Duration) {}),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected the timed out attempt to be retried once, got %d calls", calls.Load())
	}
}

func TestClientDoesNotRetryCallerDeadline(t *testing.T) {
	var calls atomic.Int32
	server := slowFirstCallServer(t, &calls, 2*time.Second)
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL},
		WithRetryMaxAttempts(3),
		WithSleeper(func(time.Duration) {}),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := client.HealthCheck(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var target struct {
		Title string `json:"title"`
	}
	inputs := []string{
		`{"title":"Morning Run"}`,
		"```json\n{\"title\":\"Morning Run\"}\n```",
		"Sure! Here you go: {\"title\":\"Morning Run\"} Hope it helps.",
	}
	for _, input := range inputs {
		target.Title = ""
		if err := DecodeLLMJSON(input, &target); err != nil {
			t.Fatalf("DecodeLLMJSON(%q) returned error: %v", input, err)
		}
		if target.Title != "Morning Run" {
			t.Fatalf("DecodeLLMJSON(%q) title = %q", input, target.Title)
		}
	}
	if err := DecodeLLMJSON("not json at all", &target); err == nil {
		t.Fatal("expected error for prose payload")
	}
	if err := DecodeLLMJSON("  ", &target); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
