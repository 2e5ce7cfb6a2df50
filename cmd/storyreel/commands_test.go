package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"storyreel/internal/preflight"
	"storyreel/internal/store"
	"storyreel/internal/testsupport"
)

func TestCacheListPruneClear(t *testing.T) {
	env := setupCLITestEnv(t)
	st := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()
	for _, key := range []store.Key{
		{Stage: store.StageStory, Digest: store.Digest("tifu", "day")},
		{Stage: store.StageNarration, Digest: store.Digest("story", "model")},
	} {
		if _, err := st.PutBytes(ctx, key, []byte("payload"), ".txt"); err != nil {
			t.Fatalf("PutBytes: %v", err)
		}
	}

	out, _, err := runCLI(t, env, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "narration")
	requireContains(t, out, "2 artifacts")

	out, _, err = runCLI(t, env, "cache", "list", "--stage", "story", "--json")
	if err != nil {
		t.Fatalf("cache list --json: %v", err)
	}
	var listed []store.Artifact
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 1 || listed[0].Key.Stage != store.StageStory {
		t.Fatalf("listed = %+v", listed)
	}

	out, _, err = runCLI(t, env, "cache", "prune", "--older-than", "24h")
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "Pruned 0 cached artifacts")

	out, _, err = runCLI(t, env, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 2 cached artifacts")

	out, _, err = runCLI(t, env, "cache", "list")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Cache is empty")
}

func TestRunsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	st := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()

	out, _, err := runCLI(t, env, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, err := st.BeginRun(ctx, "0123456789abcdef", "nosleep", ""); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := st.FinishRun(ctx, "0123456789abcdef", store.RunResult{
		Status:       store.RunStatusReview,
		Title:        "Something In The Walls",
		ErrorMessage: "validation: plan: no narration",
	}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if _, err := st.BeginRun(ctx, "stuck-run", "tifu", ""); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	out, _, err = runCLI(t, env, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "01234567")
	requireContains(t, out, "review")

	out, _, err = runCLI(t, env, "runs", "0123456789abcdef")
	if err != nil {
		t.Fatalf("runs <id>: %v", err)
	}
	requireContains(t, out, "Error:     validation: plan: no narration")

	out, _, err = runCLI(t, env, "runs", "abandon")
	if err != nil {
		t.Fatalf("runs abandon: %v", err)
	}
	requireContains(t, out, "Marked 1 run(s) as failed")

	run, err := st.GetRun(ctx, "stuck-run")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != store.RunStatusFailed {
		t.Fatalf("status = %s, want failed", run.Status)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("second init err = %v, want already exists", err)
	}
}

func TestTestNotifyRequiresTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "test-notify")
	if err == nil || !strings.Contains(err.Error(), "ntfy_topic") {
		t.Fatalf("err = %v, want missing topic", err)
	}
}

func TestStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedMedia("3"), testsupport.WithCredentials())

	out, _, err := runCLI(t, env, "status", "--offline")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "no runs yet")
}

func TestStatusLineNoColor(t *testing.T) {
	got := statusLine("FFmpeg", levelError, "not found", false)
	want := statusIndent + "FFmpeg:" + strings.Repeat(" ", statusLabelWidth-len("FFmpeg:")) + " [ERROR] not found"
	if got != want {
		t.Fatalf("statusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestStatusLineWithColor(t *testing.T) {
	plain := statusLine("FFmpeg", levelOK, "ffmpeg 7.0", false)
	if got := statusLine("FFmpeg", levelOK, "ffmpeg 7.0", true); got != text.FgGreen.Sprint(plain) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestStatusReportChecks(t *testing.T) {
	report := &statusReport{}
	report.section("Preflight")
	report.checks([]preflight.Result{
		{Name: "FFmpeg", Passed: true, Detail: "ok"},
		{Name: "Reddit credentials", Passed: false, Optional: true, Detail: "using public listing"},
		{Name: "Work directory", Passed: false, Detail: "not writable"},
	})
	report.section("Runs")

	var buf strings.Builder
	if _, err := report.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "== Preflight ==" || lines[5] != "" || lines[6] != "== Runs ==" {
		t.Fatalf("unexpected section layout %q", lines)
	}
	for i, want := range []string{"[OK]", "[WARN]", "[ERROR]"} {
		if !strings.Contains(lines[i+2], want) {
			t.Fatalf("line %d = %q, want %s", i+2, lines[i+2], want)
		}
	}
}

func TestRunStatusLevel(t *testing.T) {
	tests := map[store.RunStatus]checkLevel{
		store.RunStatusSucceeded: levelOK,
		store.RunStatusReview:    levelWarn,
		store.RunStatusFailed:    levelError,
		store.RunStatusRunning:   levelInfo,
	}
	for status, want := range tests {
		if got := runStatusLevel(status); got != want {
			t.Fatalf("runStatusLevel(%s) = %d, want %d", status, got, want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&strings.Builder{}) {
		t.Fatal("expected no color for non-file writer")
	}
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	st := testsupport.MustOpenStore(t, env.cfg)
	logPath := testsupport.WriteText(t, filepath.Join(env.cfg.RunLogDir(), "run-logs.log"),
		`{"ts":"2026-03-01T10:00:00Z","level":"info","msg":"stage started","stage":"story"}`+"\n"+
			`{"ts":"2026-03-01T10:00:01Z","level":"warn","msg":"narration rewrite failed","stage":"narration"}`+"\n")
	if _, err := st.BeginRun(context.Background(), "run-logs", "tifu", logPath); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	out, _, err := runCLI(t, env, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "[story] stage started")
	requireContains(t, out, "[narration] narration rewrite failed")

	out, _, err = runCLI(t, env, "logs", "run-logs", "--level", "warn")
	if err != nil {
		t.Fatalf("logs --level: %v", err)
	}
	if strings.Contains(out, "stage started") {
		t.Fatalf("info line not filtered: %q", out)
	}

	out, _, err = runCLI(t, env, "logs", "--raw", "--lines", "1")
	if err != nil {
		t.Fatalf("logs --raw: %v", err)
	}
	requireContains(t, out, `"msg":"narration rewrite failed"`)
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCredentials())

	out, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "test-llm") || strings.Contains(out, "test-tts") {
		t.Fatalf("secrets leaked: %s", out)
	}
	requireContains(t, out, redacted)
	requireContains(t, out, "[captions]")

	out, _, err = runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "llm.api_key")
	requireContains(t, out, "voiceover")
}
