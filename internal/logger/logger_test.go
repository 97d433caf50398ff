package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	log := NewLoggerWithFormat("info", FormatJSON, &buf)
	log.With("component", "test").Info("hello", "slides", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}

	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}

	if entry["component"] != "test" {
		t.Errorf("component = %v, want test", entry["component"])
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer

	log := NewLoggerWithFormat("error", FormatText, &buf)
	log.Info("dropped")

	if buf.Len() != 0 {
		t.Fatalf("expected no output at error level, got %q", buf.String())
	}

	log.SetLevel("debug")
	log.Debug("kept")

	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected debug message after SetLevel, got %q", buf.String())
	}

	if !log.Enabled(slog.LevelDebug) {
		t.Error("Enabled(debug) = false after SetLevel(debug)")
	}
}
