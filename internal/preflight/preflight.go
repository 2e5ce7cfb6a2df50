package preflight

import (
	"context"
	"strings"

	"storyreel/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Blocking reports whether a failed result should stop a render.
func (r Result) Blocking() bool {
	return !r.Passed && !r.Optional
}

// SystemRequirements lists the binaries a render needs.
func SystemRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for compositing",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for voiceover duration",
		},
	}
}

// RunLocal executes the checks that need no network access: directories,
// free space, binaries and credentials.
func RunLocal(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckFreeSpace("Work disk space", cfg.Paths.WorkDir, cfg.Render.MinFreeGiB),
	}
	for _, status := range CheckBinaries(ctx, SystemRequirements(cfg)) {
		results = append(results, status.Result())
	}
	results = append(results, CheckCredentials(cfg)...)
	return results
}

// RunAll runs RunLocal plus the narration LLM health check.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := RunLocal(ctx, cfg)
	llmCheck := CheckLLM(ctx, "Narration LLM", cfg.GetLLM())
	if !llmCheck.Passed && cfg.LLM.FallbackToSource {
		llmCheck.Optional = true
	}
	return append(results, llmCheck)
}

// Failures returns the blocking failures from results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Blocking() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed checks into one line for error messages.
func Summary(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return strings.Join(parts, "; ")
}
