package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/aistack/internal/ports"
)

func TestNopLogger_ImplementsInterface(_ *testing.T) {
	var _ ports.Logger = NewNopLogger()
}

func TestNopLogger_Methods(t *testing.T) {
	logger := NewNopLogger()
	ctx := context.Background()

	// All methods should be no-ops
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	// With should return itself
	withLogger := logger.With(ports.F("key", "value"))
	if withLogger != logger {
		t.Error("NopLogger.With should return itself")
	}
}

func TestNopLogger_Level(t *testing.T) {
	logger := NewNopLogger()

	if logger.Level() != ports.LevelInfo {
		t.Errorf("default level = %v, want %v", logger.Level(), ports.LevelInfo)
	}

	logger.SetLevel(ports.LevelDebug)
	if logger.Level() != ports.LevelDebug {
		t.Errorf("after SetLevel, level = %v, want %v", logger.Level(), ports.LevelDebug)
	}
}

func TestConsoleLogger_ImplementsInterface(_ *testing.T) {
	var _ ports.Logger = NewConsoleLogger()
}

func TestConsoleLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelDebug),
		WithTimestamp(false),
		WithLevelLabel(true),
	)

	ctx := context.Background()
	logger.Info(ctx, "test message")

	output := buf.String()
	if !strings.Contains(output, "[INFO]") {
		t.Errorf("output should contain [INFO], got %q", output)
	}
	if !strings.Contains(output, "test message") {
		t.Errorf("output should contain message, got %q", output)
	}
}

func TestConsoleLogger_TextOutput_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelDebug),
		WithTimestamp(false),
		WithLevelLabel(false),
	)

	ctx := context.Background()
	logger.Info(ctx, "test", ports.F("key1", "value1"), ports.F("key2", 42))

	output := buf.String()
	if !strings.Contains(output, "key1=value1") {
		t.Errorf("output should contain key1=value1, got %q", output)
	}
	if !strings.Contains(output, "key2=42") {
		t.Errorf("output should contain key2=42, got %q", output)
	}
}

func TestConsoleLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelDebug),
		WithJSONFormat(true),
		WithTimestamp(false),
		WithLevelLabel(true),
	)

	ctx := context.Background()
	logger.Info(ctx, "test message", ports.F("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}

	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want 'test message'", entry["msg"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want 'value'", entry["key"])
	}
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelWarn),
		WithTimestamp(false),
	)

	ctx := context.Background()

	// Debug and Info should be filtered out
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	if buf.Len() > 0 {
		t.Errorf("Debug and Info should be filtered, got %q", buf.String())
	}

	// Warn and Error should pass through
	logger.Warn(ctx, "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("Warn should not be filtered, got %q", buf.String())
	}

	buf.Reset()
	logger.Error(ctx, "error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("Error should not be filtered, got %q", buf.String())
	}
}

func TestConsoleLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelDebug),
		WithTimestamp(false),
		WithLevelLabel(false),
	)

	// Add base fields
	loggerWithFields := logger.With(ports.F("component", "test"))

	ctx := context.Background()
	loggerWithFields.Info(ctx, "message", ports.F("extra", "field"))

	output := buf.String()
	if !strings.Contains(output, "component=test") {
		t.Errorf("output should contain base field, got %q", output)
	}
	if !strings.Contains(output, "extra=field") {
		t.Errorf("output should contain extra field, got %q", output)
	}
}

func TestConsoleLogger_With_DoesNotModifyOriginal(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelDebug),
		WithTimestamp(false),
		WithLevelLabel(false),
	)

	derived := logger.With(ports.F("derived", "yes"))

	ctx := context.Background()
	logger.Info(ctx, "original")
	derived.Info(ctx, "derived")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if strings.Contains(lines[0], "derived=yes") {
		t.Error("original logger should not have derived field")
	}
	if !strings.Contains(lines[1], "derived=yes") {
		t.Error("derived logger should have derived field")
	}
}

func TestConsoleLogger_Tee_ReachesDerivedLoggers(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&console),
		WithTimestamp(false),
	)
	stepLogger := logger.With(ports.F("step", "docker:engine"))

	logger.Tee(&file)
	stepLogger.Info(context.Background(), "applied")

	if !strings.Contains(console.String(), "applied step=docker:engine") {
		t.Errorf("console output missing entry, got %q", console.String())
	}
	if console.String() != file.String() {
		t.Errorf("tee output = %q, want %q", file.String(), console.String())
	}
}

func TestConsoleLogger_TextOutput_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithTimestamp(false),
		WithLevelLabel(false),
	)

	logger.Warn(context.Background(), "step failed", ports.Err(errors.New("exit status 1: no space left")))

	want := "step failed error=\"exit status 1: no space left\"\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestConsoleLogger_JSONOutput_ErrorValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithJSONFormat(true),
		WithTimestamp(false),
	)

	logger.Error(context.Background(), "boom", ports.F("cause", errors.New("disk full")))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if entry["cause"] != "disk full" {
		t.Errorf("cause = %v, want 'disk full'", entry["cause"])
	}
}

func TestConsoleLogger_Untee(t *testing.T) {
	var console, file bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&console),
		WithTimestamp(false),
	)

	logger.Tee(&file)
	logger.Info(context.Background(), "first")
	logger.Untee(&file)
	logger.Info(context.Background(), "second")

	if !strings.Contains(console.String(), "second") {
		t.Errorf("console output missing entry, got %q", console.String())
	}
	if strings.Contains(file.String(), "second") || !strings.Contains(file.String(), "first") {
		t.Errorf("file output = %q, want only the first entry", file.String())
	}
}
