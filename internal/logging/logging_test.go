package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.Info("member joined", "household_id", "h1")
	logger.Debug("hidden")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "member joined" || entry["household_id"] != "h1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNewTextAndTint(t *testing.T) {
	for _, format := range []string{"text", "tint"} {
		var buf bytes.Buffer
		New(&buf, "debug", format).Debug("code cleanup", "count", 3)
		if !strings.Contains(buf.String(), "code cleanup") {
			t.Errorf("%s output missing message: %q", format, buf.String())
		}
	}
}
