package logging

import (
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}

	for in, want := range tests {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriterFormats(t *testing.T) {
	t.Parallel()

	var text, js strings.Builder
	NewWithWriter(&text, "info", "text").Debug("hidden")
	NewWithWriter(&text, "info", "").Info("shown", "sweep_id", "abc")
	NewWithWriter(&js, "warn", "JSON").Warn("shown", "content_id", 7)

	if strings.Contains(text.String(), "hidden") {
		t.Fatalf("debug record leaked: %s", text.String())
	}
	if !strings.Contains(text.String(), "sweep_id=abc") {
		t.Fatalf("unexpected text output: %s", text.String())
	}
	if !strings.Contains(js.String(), `"content_id":7`) {
		t.Fatalf("unexpected json output: %s", js.String())
	}
}
