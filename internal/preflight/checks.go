package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"storyreel/internal/config"
	"storyreel/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetry(1, 0, 0))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

const gib = 1 << 30

// CheckFreeSpace fails when the filesystem holding path has less than minGiB
// available to unprivileged users. A non-positive minimum only reports usage.
func CheckFreeSpace(name, path string, minGiB int) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%.1f GiB free on %s", float64(free)/gib, path)
	if minGiB > 0 && free < uint64(minGiB)*gib {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %d GiB)", detail, minGiB)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckCredentials reports which remote services have credentials. Reddit
// falls back to the public listing and Pexels to the default background, so
// those are optional.
func CheckCredentials(cfg *config.Config) []Result {
	var results []Result

	reddit := Result{Name: "Reddit credentials", Optional: true}
	if strings.TrimSpace(cfg.Reddit.ClientID) != "" && strings.TrimSpace(cfg.Reddit.ClientSecret) != "" {
		reddit.Passed = true
		reddit.Detail = "OAuth client configured"
	} else {
		reddit.Detail = "not set; using the public listing"
	}
	results = append(results, reddit)

	tts := Result{Name: "TTS credentials"}
	if strings.TrimSpace(cfg.TTS.APIKey) != "" {
		tts.Passed = true
		tts.Detail = "API key set"
	} else {
		tts.Detail = "API key missing (set tts.api_key or TTS_API_KEY)"
	}
	results = append(results, tts)

	pexels := Result{Name: "Pexels credentials"}
	switch {
	case strings.TrimSpace(cfg.Pexels.APIKey) != "":
		pexels.Passed = true
		pexels.Detail = "API key set"
	case strings.TrimSpace(cfg.Paths.DefaultBackground) != "":
		pexels.Optional = true
		pexels.Detail = "not set; using " + cfg.Paths.DefaultBackground
	default:
		pexels.Detail = "API key missing and no paths.default_background"
	}
	results = append(results, pexels)

	return results
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
