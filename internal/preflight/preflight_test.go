package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if r := CheckFreeSpace("disk", dir, 0); !r.Passed || !strings.Contains(r.Detail, "GiB free") {
		t.Fatalf("expected informational pass, got %+v", r)
	}
	if r := CheckFreeSpace("disk", dir, 1<<20); r.Passed {
		t.Fatalf("expected failure for an impossible minimum, got %+v", r)
	}
	if r := CheckFreeSpace("disk", filepath.Join(dir, "missing"), 1); r.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\necho 'present version 6.1'\necho 'built with gcc'\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty", Command: " "},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Version != "present version 6.1" {
		t.Fatalf("expected version from stub, got %#v", results[0])
	}
	if r := results[0].Result(); !r.Passed || r.Detail != "present version 6.1" {
		t.Fatalf("unexpected converted result %+v", r)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %s", results[2].Detail)
	}
}

func TestCheckCredentials(t *testing.T) {
	cfg := config.Default()
	results := CheckCredentials(&cfg)
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if r := byName["Reddit credentials"]; r.Passed || !r.Optional {
		t.Fatalf("missing reddit credentials should be optional, got %+v", r)
	}
	if r := byName["TTS credentials"]; !r.Blocking() {
		t.Fatalf("missing TTS key should block, got %+v", r)
	}
	if r := byName["Pexels credentials"]; !r.Blocking() {
		t.Fatalf("missing pexels key without fallback should block, got %+v", r)
	}

	cfg.Paths.DefaultBackground = "/media/loop.mp4"
	cfg.TTS.APIKey = "tts"
	for _, r := range CheckCredentials(&cfg) {
		if r.Blocking() {
			t.Fatalf("unexpected blocking result %+v", r)
		}
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	good := CheckLLM(context.Background(), "LLM", config.LLMConfig{APIKey: "good-key", BaseURL: srv.URL, Model: "m"})
	if !good.Passed {
		t.Fatalf("expected pass, got: %s", good.Detail)
	}
	bad := CheckLLM(context.Background(), "LLM", config.LLMConfig{APIKey: "bad-key", BaseURL: srv.URL, Model: "m"})
	if bad.Passed {
		t.Fatal("expected failure for bad key")
	}
	if missing := CheckLLM(context.Background(), "LLM", config.LLMConfig{}); missing.Passed || missing.Detail != "API key missing" {
		t.Fatalf("unexpected result for missing key: %+v", missing)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunLocal_ReportsBlockingFailures(t *testing.T) {
	binDir := t.TempDir()
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\necho "+name+" version test\n"), 0o755); err != nil {
			t.Fatalf("write stub: %v", err)
		}
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.Render.MinFreeGiB = 0
	cfg.TTS.APIKey = "key"
	cfg.Pexels.APIKey = "key"

	results := RunLocal(context.Background(), &cfg)
	if failed := Failures(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %s", Summary(failed))
	}

	cfg.Paths.OutputDir = filepath.Join(cfg.Paths.WorkDir, "missing")
	failed := Failures(RunLocal(context.Background(), &cfg))
	if len(failed) != 1 || failed[0].Name != "Output directory" {
		t.Fatalf("expected only output directory to fail, got %+v", failed)
	}
	if !strings.HasPrefix(Summary(failed), "Output directory: ") {
		t.Fatalf("unexpected summary %q", Summary(failed))
	}
}
