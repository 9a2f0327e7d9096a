package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"envision/internal/config"
	"envision/internal/logging"
	"envision/internal/services"
)

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("session created", logging.String(logging.FieldVisionID, "v-123"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", content, err)
	}
	if record["msg"] != "session created" || record["vision_id"] != "v-123" {
		t.Fatalf("unexpected record: %v", record)
	}
	if record["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", record["level"])
	}
}

func TestConsoleLoggerCallerOnlyForDebug(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		level      string
		wantCaller bool
	}{{"info", false}, {"debug", true}} {
		logPath := filepath.Join(dir, tc.level+".log")
		logger, err := logging.New(logging.Options{Format: "console", Level: tc.level, OutputPaths: []string{logPath}})
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info("message")
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if got := strings.Contains(string(content), ".go:"); got != tc.wantCaller {
			t.Fatalf("level %s: caller present=%v, content %q", tc.level, got, content)
		}
	}
}

func TestConsoleLoggerHeaderAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "vision")
	ctx := services.WithTask(services.WithVisionID(context.Background(), "0123456789abcdef"), "summary")
	logging.WithContext(ctx, logger).Info("response scored",
		logging.Float64("css", 0.39),
		logging.String(logging.FieldCategory, "vision"),
		logging.String(logging.FieldDecisionType, "decision_band"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	text := string(content)
	for _, want := range []string{"INFO [vision] Vision 01234567 (summary) - response scored", "- Css: 0.39", "- Category: vision"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
	if strings.Index(text, "Decision type") > strings.Index(text, "Category") {
		t.Fatalf("expected highlighted decision field before category, got %q", text)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "analysis fallback", "analysis_fallback", logging.String(logging.FieldImpact, "score uses neutral proposal"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "analysis_fallback" {
		t.Fatalf("missing event type: %v", record)
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatalf("missing error hint: %v", record)
	}
	if record[logging.FieldImpact] != "score uses neutral proposal" {
		t.Fatalf("impact overwritten: %v", record)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := services.WithVisionID(context.Background(), "v-9")
	ctx = services.WithUserID(ctx, "u-1")
	ctx = services.WithRequestID(ctx, "req-xyz")

	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldVisionID] != "v-9" || record[logging.FieldUserID] != "u-1" || record[logging.FieldCorrelationID] != "req-xyz" {
		t.Fatalf("unexpected fields: %v", record)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "envision-2024.log")
	fresh := filepath.Join(dir, "envision-2026.log")
	active := filepath.Join(dir, logging.LogFileName)
	for _, path := range []string{old, fresh, active} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	past := time.Now().AddDate(0, 0, -40)
	for _, path := range []string{old, active} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.CleanupOldLogs(logging.NewNop(), dir, "*.log", 30); removed != 1 {
		t.Fatalf("expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err %v", err)
	}
	for _, path := range []string{fresh, active} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
	if removed := logging.CleanupOldLogs(nil, dir, "*.log", 0); removed != 0 {
		t.Fatal("expected retention 0 to disable pruning")
	}
}
