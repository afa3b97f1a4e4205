package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return logEntry
}

func TestLoopLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	ll := NewLoopLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	ll.Debug("task queued", "command", "discover", "pending", 2)

	logEntry := decodeEntry(t, &buf)
	if logEntry["level"] != "debug" {
		t.Errorf("expected level 'debug', got %v", logEntry["level"])
	}
	if logEntry["message"] != "task queued" {
		t.Errorf("expected message 'task queued', got %v", logEntry["message"])
	}
	if logEntry["command"] != "discover" {
		t.Errorf("expected command='discover', got %v", logEntry["command"])
	}
	if logEntry["pending"] != float64(2) { // JSON numbers are float64
		t.Errorf("expected pending=2, got %v", logEntry["pending"])
	}
}

func TestLoopLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	ll := NewLoopLogger(zerolog.New(&buf))

	ll.Info("loop started", "size", 64)

	logEntry := decodeEntry(t, &buf)
	if logEntry["level"] != "info" {
		t.Errorf("expected level 'info', got %v", logEntry["level"])
	}
	if logEntry["size"] != float64(64) {
		t.Errorf("expected size=64, got %v", logEntry["size"])
	}
}

func TestLoopLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	ll := NewLoopLogger(zerolog.New(&buf).Level(zerolog.ErrorLevel))

	ll.Info("filtered")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}

	ll.Error("task panicked", "panic", "boom")

	logEntry := decodeEntry(t, &buf)
	if logEntry["level"] != "error" {
		t.Errorf("expected level 'error', got %v", logEntry["level"])
	}
	if logEntry["panic"] != "boom" {
		t.Errorf("expected panic='boom', got %v", logEntry["panic"])
	}
}

func TestToFields_OddAndNonStringKeys(t *testing.T) {
	fields := toFields([]any{"a", 1, 2, "b", "dangling"})

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d: %v", len(fields), fields)
	}
	if fields["a"] != 1 {
		t.Errorf("expected a=1, got %v", fields["a"])
	}
}
