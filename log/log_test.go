package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// newTestLogger returns a Logger that writes JSON into buf.
func newTestLogger(t *testing.T, buf *bytes.Buffer, level slog.Level) *Logger {
	t.Helper()
	l, err := New(buf, level, FormatJSON)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestLogger_Module(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, slog.LevelDebug)
	l.Module("verifier").Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	if entry["module"] != "verifier" {
		t.Fatalf("module = %v, want %q", entry["module"], "verifier")
	}
	if entry["msg"] != "hello" {
		t.Fatalf("msg = %v, want %q", entry["msg"], "hello")
	}
}

func TestLogger_ModuleChain(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, slog.LevelDebug)
	l.Module("feeds").With("feed", 7).Info("updated")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal: %v (raw: %s)", err, buf.String())
	}
	if entry["module"] != "feeds" {
		t.Fatalf("module = %v, want %q", entry["module"], "feeds")
	}
	if entry["feed"] != float64(7) {
		t.Fatalf("feed = %v, want 7", entry["feed"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(t, &buf, slog.LevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %s", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn entry missing: %s", buf.String())
	}
}

func TestNew_Formats(t *testing.T) {
	for _, f := range []string{FormatTerminal, FormatLogfmt, FormatJSON, ""} {
		var buf bytes.Buffer
		l, err := New(&buf, slog.LevelInfo, f)
		if err != nil {
			t.Fatalf("format %q: %v", f, err)
		}
		l.Info("ping", "k", "v")
		if !strings.Contains(buf.String(), "ping") {
			t.Fatalf("format %q: missing message in %q", f, buf.String())
		}
	}
	if _, err := New(&bytes.Buffer{}, slog.LevelInfo, "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	var buf bytes.Buffer
	SetDefault(newTestLogger(t, &buf, slog.LevelInfo))
	Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Fatalf("default logger not replaced: %s", buf.String())
	}
	SetDefault(nil)
	if Default() == nil {
		t.Fatal("SetDefault(nil) cleared the logger")
	}
}
