package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"storyreel/internal/captions"
	"storyreel/internal/testsupport"
)

const sampleNarration = "I found a letter in the attic. It was addressed to me, in my own handwriting. I have never seen it before."

func TestPlanTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "plan", "--duration", "9", "--title", "The Letter", sampleNarration)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Title:    The Letter")
	requireContains(t, out, "Frame:    1080x1920")
	requireContains(t, out, "band_a")
	requireContains(t, out, "I found a letter")
}

func TestPlanJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "plan", "--duration", "9", "--format", "json", sampleNarration)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var plan captions.LayoutPlan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v\n%s", err, out)
	}
	if plan.TotalDurationSeconds != 9 {
		t.Fatalf("total duration = %v, want 9", plan.TotalDurationSeconds)
	}
	if len(plan.Captions) == 0 {
		t.Fatal("expected captions")
	}
	for i, ev := range plan.Captions {
		want := captions.BandA
		if i%2 == 1 {
			want = captions.BandB
		}
		if ev.Position != want {
			t.Fatalf("caption %d band = %s, want %s", i, ev.Position, want)
		}
	}
}

func TestPlanYAMLFromFile(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteText(t, filepath.Join(t.TempDir(), "story.txt"), sampleNarration)

	out, _, err := runCLI(t, env, "plan", "--duration", "6", "--format", "yaml", "--file", path)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var plan captions.LayoutPlan
	if err := yaml.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if plan.Frame.Width != 1080 || len(plan.Captions) == 0 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestPlanSRTToFile(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "captions.srt")

	if _, _, err := runCLI(t, env, "plan", "--duration", "9", "--format", "srt", "--output", target, sampleNarration); err != nil {
		t.Fatalf("plan: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.HasPrefix(string(data), "1\n00:00:00,000 --> ") {
		t.Fatalf("unexpected srt %q", data)
	}
}

func TestPlanProbesAudioDuration(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedMedia("12.5"))
	audio := testsupport.WriteText(t, filepath.Join(t.TempDir(), "voice.mp3"), "mp3")

	out, _, err := runCLI(t, env, "plan", "--audio", audio, "--format", "json", sampleNarration)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	var plan captions.LayoutPlan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.TotalDurationSeconds != 12.5 {
		t.Fatalf("total duration = %v, want 12.5", plan.TotalDurationSeconds)
	}
}

func TestPlanErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing duration", args: []string{"plan", "hello world"}, want: "--duration or --audio is required"},
		{name: "missing narration", args: []string{"plan", "--duration", "3"}, want: "narration text or --file is required"},
		{name: "bad format", args: []string{"plan", "--duration", "3", "--format", "xml", "hi"}, want: "unsupported format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, env, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}

	_, _, err := runCLI(t, env, "plan", "--duration", "0", "hello world")
	if !errors.Is(err, captions.ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}
}
