package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"storyreel/internal/captions"
	"storyreel/internal/compositor"
	"storyreel/internal/logging"
	"storyreel/internal/services"
	"storyreel/internal/services/drapto"
	"storyreel/internal/services/llm"
	"storyreel/internal/services/pexels"
	"storyreel/internal/services/reddit"
	"storyreel/internal/store"
)

func (p *Pipeline) cached(ctx context.Context, rc *RunContext, logger *slog.Logger, key store.Key) (store.Artifact, bool) {
	if rc.Request.Refresh {
		return store.Artifact{}, false
	}
	art, ok, err := p.store.Get(ctx, key)
	if err != nil {
		logger.Warn("artifact cache lookup failed", logging.String("key", key.String()), logging.Error(err))
		return store.Artifact{}, false
	}
	if ok {
		logger.Info("using cached artifact",
			logging.String(logging.FieldEventType, "cache_hit"),
			logging.String("key", key.String()),
			logging.Int64("size_bytes", art.SizeBytes),
		)
		rc.noteCacheHit(string(key.Stage))
	}
	return art, ok
}

func (p *Pipeline) remember(ctx context.Context, logger *slog.Logger, key store.Key, put func() (store.Artifact, error)) {
	if _, err := put(); err != nil {
		logging.WarnWithContext(logger, "failed to cache artifact", "cache_write_failed",
			logging.String("key", key.String()),
			logging.String(logging.FieldImpact, "stage will be recomputed next run"),
			logging.Error(err),
		)
	}
}

func (p *Pipeline) fetchStory(ctx context.Context, rc *RunContext, logger *slog.Logger) error {
	if path := strings.TrimSpace(rc.Request.StoryFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return services.Wrap(services.ErrValidation, StageStory, "read story file", path, err)
		}
		title, body := splitStoryFile(string(data))
		if title == "" {
			return services.Wrap(services.ErrValidation, StageStory, "read story file", "file is empty", nil)
		}
		rc.Story = reddit.Story{
			ID:    "file-" + store.Digest(string(data))[:12],
			Title: title,
			Body:  body,
		}
		logger.Info("loaded story from file", logging.String("path", path), logging.String("title", title))
		return nil
	}

	subreddit := rc.Request.Subreddit
	day := p.now().UTC().Format("2006-01-02")
	key := store.Key{Stage: store.StageStory, Digest: store.Digest(strings.ToLower(subreddit), p.cfg.Reddit.TimeFilter, day)}
	if art, ok := p.cached(ctx, rc, logger, key); ok {
		data, err := os.ReadFile(art.Path)
		if err == nil && json.Unmarshal(data, &rc.Story) == nil && rc.Story.Text() != "" {
			return nil
		}
		logger.Warn("cached story unreadable; fetching again", logging.Error(err))
	}

	story, err := p.stories.TopStory(ctx, subreddit)
	if err != nil {
		switch {
		case errors.Is(err, reddit.ErrNoStory):
			return services.Wrap(services.ErrNotFound, StageStory, "top story", "r/"+subreddit, err)
		case reddit.IsRetriable(err):
			return services.Wrap(services.ErrTransient, StageStory, "top story", "r/"+subreddit, err)
		default:
			return services.Wrap(services.ErrExternalTool, StageStory, "top story", "r/"+subreddit, err)
		}
	}
	rc.Story = story
	logger.Info("selected story",
		logging.String("story_id", story.ID),
		logging.String("title", story.Title),
		logging.Int("score", story.Score),
		logging.String("permalink", story.Permalink),
	)

	p.remember(ctx, logger, key, func() (store.Artifact, error) {
		encoded, err := json.Marshal(story)
		if err != nil {
			return store.Artifact{}, err
		}
		return p.store.PutBytes(ctx, key, encoded, ".json")
	})
	return nil
}

func (p *Pipeline) narrate(ctx context.Context, rc *RunContext, logger *slog.Logger) error {
	source := rc.Story.Text()
	if rc.Request.SkipRewrite {
		rc.Narration = source
		logger.Info("narrating story verbatim", logging.Args(logging.DecisionAttrs("narration_source", "source", "rewrite skipped by request")...)...)
		return nil
	}
	if p.narrator == nil {
		if p.cfg.LLM.FallbackToSource {
			rc.Narration = source
			logging.WarnWithContext(logger, "no LLM configured; narrating source text", "narration_fallback",
				logging.String(logging.FieldErrorHint, "set llm.api_key or OPENROUTER_API_KEY"),
			)
			return nil
		}
		return services.Wrap(services.ErrConfiguration, StageNarration, "rewrite", "llm.api_key is not set", nil)
	}

	maxWords := p.cfg.LLM.MaxInputWords
	key := store.Key{Stage: store.StageNarration, Digest: store.Digest(
		source, p.cfg.LLM.Model, llm.NarrationSystemPrompt, strconv.Itoa(maxWords),
	)}
	if art, ok := p.cached(ctx, rc, logger, key); ok {
		if data, err := os.ReadFile(art.Path); err == nil && strings.TrimSpace(string(data)) != "" {
			rc.Narration = string(data)
			return nil
		}
	}

	narration, err := p.narrator.RewriteStory(ctx, source, maxWords)
	if err != nil {
		if p.cfg.LLM.FallbackToSource && ctx.Err() == nil {
			rc.Narration = source
			logging.WarnWithContext(logger, "narration rewrite failed; narrating source text", "narration_fallback",
				logging.String(logging.FieldImpact, "video uses the unedited story"),
				logging.Error(err),
			)
			return nil
		}
		return services.Wrap(services.ErrExternalTool, StageNarration, "rewrite", "", err)
	}
	rc.Narration = narration
	logger.Info("narration ready", logging.Int("words", len(strings.Fields(narration))))

	p.remember(ctx, logger, key, func() (store.Artifact, error) {
		return p.store.PutBytes(ctx, key, []byte(narration), ".txt")
	})
	return nil
}

// prepareMedia synthesizes the voiceover and fetches the background clip concurrently.
func (p *Pipeline) prepareMedia(ctx context.Context, rc *RunContext) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.runStage(gctx, rc, StageVoiceover, p.voiceover) })
	g.Go(func() error { return p.runStage(gctx, rc, StageBackground, p.background) })
	return g.Wait()
}

func (p *Pipeline) voiceover(ctx context.Context, rc *RunContext, logger *slog.Logger) error {
	if p.voice == nil {
		return services.Wrap(services.ErrConfiguration, StageVoiceover, "synthesize", "tts.api_key is not set", nil)
	}
	key := store.Key{Stage: store.StageVoiceover, Digest: store.Digest(
		rc.Narration, p.cfg.TTS.Model, p.cfg.TTS.Voice, strconv.FormatFloat(p.cfg.TTS.Speed, 'f', 2, 64),
	)}

	voicePath := ""
	if art, ok := p.cached(ctx, rc, logger, key); ok {
		voicePath = art.Path
	} else {
		dest := filepath.Join(rc.WorkDir, "voiceover.mp3")
		if err := p.voice.Synthesize(ctx, rc.Narration, dest); err != nil {
			return services.Wrap(services.ErrExternalTool, StageVoiceover, "synthesize", "", err)
		}
		voicePath = dest
		p.remember(ctx, logger, key, func() (store.Artifact, error) {
			return p.store.Put(ctx, key, dest)
		})
	}

	duration, err := p.probe(ctx, voicePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageVoiceover, "probe duration", voicePath, err)
	}
	rc.VoicePath = voicePath
	rc.Duration = duration
	logger.Info("voiceover ready",
		logging.String("path", voicePath),
		logging.Float64("duration_seconds", duration),
	)
	return nil
}

func (p *Pipeline) background(ctx context.Context, rc *RunContext, logger *slog.Logger) error {
	if path := strings.TrimSpace(rc.Request.Background); path != "" {
		if _, err := os.Stat(path); err != nil {
			return services.Wrap(services.ErrValidation, StageBackground, "local clip", path, err)
		}
		rc.BackgroundPath = path
		return nil
	}
	if p.footage == nil {
		return p.defaultBackground(rc, logger, "pexels.api_key is not set", nil)
	}

	query := p.cfg.Pexels.Query
	orientation := p.cfg.Pexels.Orientation
	height := p.cfg.Render.Height
	key := store.Key{Stage: store.StageBackground, Digest: store.Digest(query, orientation, strconv.Itoa(height))}
	if art, ok := p.cached(ctx, rc, logger, key); ok {
		rc.BackgroundPath = art.Path
		return nil
	}

	video, file, err := p.footage.FindFootage(ctx, query, orientation, height)
	if err != nil {
		return p.defaultBackground(rc, logger, "footage search failed", err)
	}
	dest := filepath.Join(rc.WorkDir, "background"+clipExt(file))
	if err := p.footage.Download(ctx, file, dest); err != nil {
		return p.defaultBackground(rc, logger, "footage download failed", err)
	}
	rc.BackgroundPath = dest
	logger.Info("background ready",
		logging.Int("pexels_video_id", video.ID),
		logging.Int("width", file.Width),
		logging.Int("height", file.Height),
	)
	p.remember(ctx, logger, key, func() (store.Artifact, error) {
		return p.store.Put(ctx, key, dest)
	})
	return nil
}

func (p *Pipeline) defaultBackground(rc *RunContext, logger *slog.Logger, reason string, cause error) error {
	fallback := strings.TrimSpace(p.cfg.Paths.DefaultBackground)
	if fallback == "" {
		marker := services.ErrConfiguration
		if errors.Is(cause, pexels.ErrNoFootage) {
			marker = services.ErrNotFound
		} else if cause != nil {
			marker = services.ErrExternalTool
		}
		return services.Wrap(marker, StageBackground, "find footage", reason, cause)
	}
	if _, err := os.Stat(fallback); err != nil {
		return services.Wrap(services.ErrConfiguration, StageBackground, "default background", fallback, err)
	}
	attrs := []logging.Attr{
		logging.String("fallback", fallback),
		logging.String("reason", reason),
	}
	if cause != nil {
		attrs = append(attrs, logging.Error(cause))
	}
	logging.WarnWithContext(logger, "using default background", "background_fallback", attrs...)
	rc.BackgroundPath = fallback
	return nil
}

func clipExt(file pexels.VideoFile) string {
	if _, sub, ok := strings.Cut(file.FileType, "/"); ok && sub != "" {
		return "." + sub
	}
	return ".mp4"
}

func (p *Pipeline) plan(ctx context.Context, rc *RunContext, logger *slog.Logger) error {
	c := p.cfg.Captions
	title := NormalizeTitle(rc.Request.Title, rc.Story.Title, c.DefaultTitle, c.TitleCase, c.TitleMaxRunes)
	planner := captions.NewPlanner(PlannerOptions(p.cfg))
	plan, err := planner.Plan(captions.Request{
		Narration:       rc.Narration,
		DurationSeconds: rc.Duration,
		Frame:           Frame(p.cfg),
		Title:           title,
	})
	if err != nil {
		return services.Wrap(services.ErrValidation, StagePlan, "build layout", "", err)
	}
	rc.Plan = plan
	if over := plan.Overrun(); over > 0 {
		logger.Info("last caption outlasts narration; render trims it",
			logging.Float64("overrun_seconds", over),
		)
	}
	logger.Info("layout planned",
		logging.Int("captions", len(plan.Captions)),
		logging.Float64("interval_seconds", plan.IntervalSeconds),
		logging.String("title", plan.Title.Text),
	)
	return nil
}

func (p *Pipeline) render(ctx context.Context, rc *RunContext, logger *slog.Logger) error {
	output := strings.TrimSpace(rc.Request.Output)
	if output == "" {
		output = filepath.Join(p.cfg.Paths.OutputDir, Slug(rc.Plan.Title.Text, 60)+"-"+shortID(rc.ID)+".mp4")
	}

	if timeout := p.cfg.Render.TimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	job := compositor.Job{
		Plan: rc.Plan,
		Style: compositor.Style{
			FontFile:      p.cfg.Captions.FontFile,
			FontSize:      p.cfg.Captions.FontSize,
			TitleFontSize: p.cfg.Captions.TitleFontSize,
			FPS:           p.cfg.Render.FPS,
			FontColor:     "white",
			BoxColor:      "black@0.5",
			BoxBorder:     20,
			LineSpacing:   10,
		},
		Background:   rc.BackgroundPath,
		Voiceover:    rc.VoicePath,
		Output:       output,
		WorkDir:      rc.WorkDir,
		Preset:       p.cfg.Render.Preset,
		AudioBitrate: p.cfg.Render.AudioBitrate,
	}
	if err := p.renderer.Render(ctx, job); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, StageRender, "ffmpeg", "render timed out", err)
		}
		return services.Wrap(services.ErrExternalTool, StageRender, "ffmpeg", "", err)
	}
	rc.OutputPath = output

	srtPath := strings.TrimSuffix(output, filepath.Ext(output)) + ".srt"
	if err := writeSRT(srtPath, rc.Plan); err != nil {
		logger.Warn("failed to write subtitle sidecar", logging.String("path", srtPath), logging.Error(err))
	} else {
		rc.SRTPath = srtPath
	}
	logger.Info("render complete", logging.String("output", output))
	return nil
}

func writeSRT(path string, plan captions.LayoutPlan) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := captions.WriteSRT(f, plan); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (p *Pipeline) archive(ctx context.Context, rc *RunContext, logger *slog.Logger) error {
	outDir := filepath.Join(p.cfg.Paths.OutputDir, "archive")
	lastBucket := -1
	path, err := p.archiver.Encode(ctx, rc.OutputPath, outDir, func(update drapto.ProgressUpdate) {
		switch update.Type {
		case drapto.EventTypeEncodingProgress:
			if bucket := int(update.Percent) / 10; bucket != lastBucket {
				lastBucket = bucket
				logger.Debug("archive progress",
					logging.Float64("percent", update.Percent),
					logging.Duration("eta", update.ETA),
				)
			}
		case drapto.EventTypeWarning:
			logger.Warn("archive warning", logging.String("message", update.Message))
		}
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageArchive, "drapto encode", "", err)
	}
	rc.ArchivePath = path
	logger.Info("archive copy written", logging.String("path", path))
	return nil
}
