package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"storyreel/internal/captions"
	"storyreel/internal/logging"
)

// Job describes one render.
type Job struct {
	Plan         captions.LayoutPlan
	Style        Style
	Background   string
	Voiceover    string
	Output       string
	WorkDir      string
	Preset       string
	AudioBitrate string
}

// Renderer composites jobs with ffmpeg.
type Renderer struct {
	Binary string
	Logger *slog.Logger
}

// NewRenderer returns a renderer using the given ffmpeg binary.
func NewRenderer(binary string, logger *slog.Logger) *Renderer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Renderer{Binary: binary, Logger: logging.NewComponentLogger(logger, "compositor")}
}

// WriteTextFiles stores the title and each caption's wrapped lines under dir.
func WriteTextFiles(plan captions.LayoutPlan, dir string) (TextFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return TextFiles{}, fmt.Errorf("create caption text dir: %w", err)
	}
	var files TextFiles
	if title := strings.TrimSpace(plan.Title.Text); title != "" {
		files.Title = filepath.Join(dir, "title.txt")
		if err := os.WriteFile(files.Title, []byte(title), 0o644); err != nil {
			return TextFiles{}, fmt.Errorf("write title text: %w", err)
		}
	}
	files.Captions = make([]string, len(plan.Captions))
	for i, ev := range plan.Captions {
		text := strings.Join(ev.Lines, "\n")
		if text == "" {
			text = ev.Text
		}
		path := filepath.Join(dir, fmt.Sprintf("caption-%04d.txt", ev.Index))
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return TextFiles{}, fmt.Errorf("write caption %d text: %w", ev.Index, err)
		}
		files.Captions[i] = path
	}
	return files, nil
}

// BuildArgs returns the ffmpeg arguments for job writing to output.
func BuildArgs(job Job, graph, output string) []string {
	preset := strings.TrimSpace(job.Preset)
	if preset == "" {
		preset = "ultrafast"
	}
	bitrate := strings.TrimSpace(job.AudioBitrate)
	if bitrate == "" {
		bitrate = "192k"
	}
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-stream_loop", "-1", "-i", job.Background,
		"-i", job.Voiceover,
		"-filter_complex", graph,
		"-map", VideoLabel,
		"-map", AudioLabel,
		"-t", strconv.FormatFloat(job.Plan.TotalDurationSeconds, 'f', 3, 64),
		"-c:v", "libx264",
		"-preset", preset,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", bitrate,
		"-movflags", "+faststart",
		output,
	}
}

// Render writes caption text files, runs ffmpeg into a temporary file next to
// job.Output and renames it into place once ffmpeg succeeds.
func (r *Renderer) Render(ctx context.Context, job Job) error {
	if job.Background == "" || job.Voiceover == "" || job.Output == "" {
		return errors.New("render job requires background, voiceover and output paths")
	}
	workDir := job.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(job.Output)
	}
	files, err := WriteTextFiles(job.Plan, filepath.Join(workDir, "captions"))
	if err != nil {
		return err
	}
	graph, err := BuildFilterGraph(job.Plan, job.Style, files)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp := partialPath(job.Output)
	args := BuildArgs(job, graph, tmp)
	r.Logger.Debug("starting ffmpeg",
		logging.String("output", job.Output),
		logging.Int("captions", len(job.Plan.Captions)),
		logging.Float64("duration_seconds", job.Plan.TotalDurationSeconds),
	)

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(tmp)
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 2048 {
			detail = detail[len(detail)-2048:]
		}
		if detail != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, detail)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	if err := os.Rename(tmp, job.Output); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize render: %w", err)
	}
	return nil
}

// partialPath keeps the extension so ffmpeg can infer the container.
func partialPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + ".partial" + ext
}
