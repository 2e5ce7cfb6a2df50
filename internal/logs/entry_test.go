package logs

import (
	"log/slog"
	"strings"
	"testing"
)

const sampleLine = `{"ts":"2026-03-01T10:00:00.5Z","level":"warn","msg":"narration rewrite failed","component":"pipeline","stage":"narration","run_id":"abc","event_type":"narration_fallback","attempts":3}`

func TestParseJSONLine(t *testing.T) {
	entry := Parse(sampleLine)
	if entry.Level != slog.LevelWarn {
		t.Fatalf("level = %v", entry.Level)
	}
	if entry.Message != "narration rewrite failed" || entry.Stage != "narration" || entry.Component != "pipeline" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Time.IsZero() {
		t.Fatal("expected time")
	}
	if _, ok := entry.Attrs["run_id"]; ok {
		t.Fatal("run_id should be dropped from attrs")
	}
	if entry.Attrs["event_type"] != "narration_fallback" {
		t.Fatalf("attrs = %v", entry.Attrs)
	}
}

func TestParsePlainLine(t *testing.T) {
	entry := Parse("not json at all")
	if entry.Message != "not json at all" || entry.Level != slog.LevelInfo {
		t.Fatalf("entry = %+v", entry)
	}
	if got := Format(entry); got != "not json at all" {
		t.Fatalf("Format = %q", got)
	}
}

func TestFormat(t *testing.T) {
	got := Format(Parse(sampleLine))
	if !strings.Contains(got, "WARN  [narration] narration rewrite failed") {
		t.Fatalf("Format = %q", got)
	}
	if !strings.HasSuffix(got, "attempts=3 event_type=narration_fallback") {
		t.Fatalf("attrs not sorted: %q", got)
	}
}

func TestFilter(t *testing.T) {
	entry := Parse(sampleLine)

	tests := []struct {
		level, stage string
		want         bool
	}{
		{"", "", true},
		{"warn", "", true},
		{"error", "", false},
		{"", "narration", true},
		{"", "render", false},
		{"debug", "NARRATION", true},
	}
	for _, tt := range tests {
		f, err := NewFilter(tt.level, tt.stage)
		if err != nil {
			t.Fatalf("NewFilter(%q, %q): %v", tt.level, tt.stage, err)
		}
		if got := f.Match(entry); got != tt.want {
			t.Fatalf("Match(level=%q stage=%q) = %v, want %v", tt.level, tt.stage, got, tt.want)
		}
	}

	if !(Filter{}).Match(Entry{Level: slog.LevelDebug}) {
		t.Fatal("zero filter should match everything")
	}
	if _, err := NewFilter("loud", ""); err == nil {
		t.Fatal("expected error for bad level")
	}
}
