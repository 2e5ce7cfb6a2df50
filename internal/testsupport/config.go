package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"storyreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Directories are created, credentials are blank and notifications are off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Render.MinFreeGiB = 0
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithCredentials fills every remote service key with a placeholder.
func WithCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = "test-llm"
		b.cfg.TTS.APIKey = "test-tts"
		b.cfg.Pexels.APIKey = "test-pexels"
	}
}

// WithStubbedMedia installs ffprobe and ffmpeg stubs in a private bin dir and
// points the render config at them. ffprobe reports durationSeconds for every
// file; ffmpeg writes a placeholder to its final argument.
func WithStubbedMedia(durationSeconds string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		b.cfg.Render.FFprobeBinary = StubFFprobe(b.t, binDir, durationSeconds)
		b.cfg.Render.FFmpegBinary = StubFFmpeg(b.t, binDir)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// StubFFprobe writes an ffprobe stand-in that reports one audio stream of the
// given duration and returns its path.
func StubFFprobe(t testing.TB, dir, durationSeconds string) string {
	t.Helper()
	payload := `{"streams":[{"index":0,"codec_type":"audio","codec_name":"mp3","duration":"` + durationSeconds +
		`"}],"format":{"duration":"` + durationSeconds + `","format_name":"mp3"}}`
	return writeExecutable(t, dir, "ffprobe", versionGuard("ffprobe")+"cat <<'JSON'\n"+payload+"\nJSON\n")
}

// StubFFmpeg writes an ffmpeg stand-in that creates its output file and
// returns its path.
func StubFFmpeg(t testing.TB, dir string) string {
	t.Helper()
	return writeExecutable(t, dir, "ffmpeg", versionGuard("ffmpeg")+"for a in \"$@\"; do last=\"$a\"; done\necho rendered > \"$last\"\n")
}

// versionGuard makes a stub answer -version without running its body.
func versionGuard(name string) string {
	return "#!/bin/sh\nif [ \"$1\" = \"-version\" ]; then echo \"" + name + " version stub\"; exit 0; fi\n"
}

func writeExecutable(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}
