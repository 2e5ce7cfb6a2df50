package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"storyreel/internal/compositor"
	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/media/ffprobe"
	"storyreel/internal/notifications"
	"storyreel/internal/preflight"
	"storyreel/internal/services"
	"storyreel/internal/services/drapto"
	"storyreel/internal/services/llm"
	"storyreel/internal/services/pexels"
	"storyreel/internal/services/reddit"
	"storyreel/internal/services/tts"
	"storyreel/internal/store"
)

const lockFileName = ".storyreel.lock"

// ErrBusy is returned when another render holds the output directory lock.
var ErrBusy = errors.New("another render is using the output directory")

// Pipeline turns a Reddit story into a narrated, captioned video.
type Pipeline struct {
	cfg      *config.Config
	store    *store.Store
	logger   *slog.Logger
	notifier notifications.Service

	stories  StorySource
	narrator Narrator
	voice    Synthesizer
	footage  FootageSource
	renderer Renderer
	probe    DurationProber
	archiver Archiver

	skipPreflight bool
	now           func() time.Time
	lockTimeout   time.Duration
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStorySource replaces the Reddit client.
func WithStorySource(src StorySource) Option { return func(p *Pipeline) { p.stories = src } }

// WithNarrator replaces the LLM client.
func WithNarrator(n Narrator) Option { return func(p *Pipeline) { p.narrator = n } }

// WithSynthesizer replaces the TTS client.
func WithSynthesizer(s Synthesizer) Option { return func(p *Pipeline) { p.voice = s } }

// WithFootageSource replaces the Pexels client.
func WithFootageSource(f FootageSource) Option { return func(p *Pipeline) { p.footage = f } }

// WithRenderer replaces the ffmpeg compositor.
func WithRenderer(r Renderer) Option { return func(p *Pipeline) { p.renderer = r } }

// WithDurationProber replaces the ffprobe duration lookup.
func WithDurationProber(fn DurationProber) Option { return func(p *Pipeline) { p.probe = fn } }

// WithArchiver replaces the Drapto library client.
func WithArchiver(a Archiver) Option { return func(p *Pipeline) { p.archiver = a } }

// WithNotifier replaces the notification service.
func WithNotifier(n notifications.Service) Option { return func(p *Pipeline) { p.notifier = n } }

// WithoutPreflight skips the local readiness checks.
func WithoutPreflight() Option { return func(p *Pipeline) { p.skipPreflight = true } }

// New builds a pipeline whose collaborators are derived from cfg unless
// replaced by options. Clients whose credentials are missing stay nil and the
// stage that needs them reports a configuration error.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if st == nil {
		return nil, errors.New("pipeline: store is required")
	}
	p := &Pipeline{
		cfg:         cfg,
		store:       st,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		now:         time.Now,
		lockTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.applyDefaults(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) applyDefaults() error {
	cfg := p.cfg
	if p.notifier == nil {
		p.notifier = notifications.NewService(cfg)
	}
	if p.stories == nil {
		client, err := reddit.New(reddit.Config{
			ClientID:          cfg.Reddit.ClientID,
			ClientSecret:      cfg.Reddit.ClientSecret,
			UserAgent:         cfg.Reddit.UserAgent,
			TimeFilter:        cfg.Reddit.TimeFilter,
			Candidates:        cfg.Reddit.Candidates,
			AllowNSFW:         cfg.Reddit.AllowNSFW,
			RequestsPerSecond: cfg.Reddit.RequestsPerSecond,
			HTTPClient:        httpClient(cfg.Reddit.TimeoutSeconds),
		})
		if err != nil {
			return fmt.Errorf("pipeline: reddit client: %w", err)
		}
		p.stories = client
	}
	if p.narrator == nil && strings.TrimSpace(cfg.LLM.APIKey) != "" {
		llmCfg := cfg.GetLLM()
		p.narrator = llm.NewClient(llm.Config{
			APIKey:         llmCfg.APIKey,
			BaseURL:        llmCfg.BaseURL,
			Model:          llmCfg.Model,
			Referer:        llmCfg.Referer,
			Title:          llmCfg.Title,
			TimeoutSeconds: llmCfg.TimeoutSeconds,
		})
	}
	if p.voice == nil && strings.TrimSpace(cfg.TTS.APIKey) != "" {
		p.voice = tts.NewClient(tts.Config{
			APIKey:         cfg.TTS.APIKey,
			BaseURL:        cfg.TTS.BaseURL,
			Model:          cfg.TTS.Model,
			Voice:          cfg.TTS.Voice,
			Speed:          cfg.TTS.Speed,
			TimeoutSeconds: cfg.TTS.TimeoutSeconds,
		})
	}
	if p.footage == nil && strings.TrimSpace(cfg.Pexels.APIKey) != "" {
		client, err := pexels.New(pexels.Config{
			APIKey:     cfg.Pexels.APIKey,
			BaseURL:    cfg.Pexels.BaseURL,
			PerPage:    cfg.Pexels.PerPage,
			HTTPClient: httpClient(cfg.Pexels.TimeoutSeconds),
		})
		if err != nil {
			return fmt.Errorf("pipeline: pexels client: %w", err)
		}
		p.footage = client
	}
	if p.renderer == nil {
		p.renderer = compositor.NewRenderer(cfg.FFmpegBinary(), p.logger)
	}
	if p.probe == nil {
		binary := cfg.FFprobeBinary()
		p.probe = func(ctx context.Context, path string) (float64, error) {
			return ffprobe.AudioDuration(ctx, binary, path)
		}
	}
	if p.archiver == nil && cfg.Render.ArchiveAV1 {
		p.archiver = drapto.NewLibrary()
	}
	return nil
}

// Run executes every stage for req and records the outcome in the run ledger.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	started := p.now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)

	runLogger, logPath, closeLog, err := logging.NewRunLogger(p.logger, p.cfg.RunLogDir(), runID)
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "", "open run log", "", err)
	}
	defer func() { _ = closeLog() }()
	logging.PruneRunLogs(runLogger, p.cfg.RunLogDir(), p.cfg.Logging.RetentionDays, started, logPath)

	subreddit := strings.TrimSpace(req.Subreddit)
	if subreddit == "" {
		subreddit = p.cfg.Reddit.Subreddit
	}
	req.Subreddit = subreddit
	if req.StoryFile != "" {
		subreddit = ""
	}

	if _, err := p.store.BeginRun(ctx, runID, subreddit, logPath); err != nil {
		return Result{}, fmt.Errorf("record run start: %w", err)
	}

	rc := &RunContext{
		ID:      runID,
		Request: req,
		Logger:  runLogger,
		WorkDir: filepath.Join(p.cfg.Paths.WorkDir, runID),
	}
	rc.Logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("subreddit", subreddit),
		logging.String("story_file", req.StoryFile),
		logging.Bool("refresh", req.Refresh),
	)

	runErr := p.execute(ctx, rc)
	elapsed := p.now().Sub(started)

	if runErr != nil {
		p.recordFailure(ctx, rc, runErr)
		return Result{}, runErr
	}

	if err := p.store.FinishRun(ctx, runID, store.RunResult{
		Status:          store.RunStatusSucceeded,
		StoryID:         rc.Story.ID,
		Title:           rc.Plan.Title.Text,
		OutputPath:      rc.OutputPath,
		CaptionCount:    len(rc.Plan.Captions),
		DurationSeconds: rc.Duration,
	}); err != nil {
		rc.Logger.Warn("failed to record run result", logging.Error(err))
	}

	rc.Logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", rc.OutputPath),
		logging.Int("captions", len(rc.Plan.Captions)),
		logging.Duration("elapsed", elapsed),
		logging.Any("cache_hits", rc.CacheHits()),
	)

	if err := p.notifier.NotifyRenderCompleted(ctx, notifications.RenderSummary{
		Title:      rc.Plan.Title.Text,
		Subreddit:  rc.Story.Subreddit,
		OutputPath: rc.OutputPath,
		Duration:   time.Duration(rc.Duration * float64(time.Second)),
		Captions:   len(rc.Plan.Captions),
		Elapsed:    elapsed,
	}); err != nil {
		logging.WarnWithContext(rc.Logger, "render notification failed", "notification_failed",
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err),
		)
	}

	return Result{
		RunID:       runID,
		Story:       rc.Story,
		Narration:   rc.Narration,
		Plan:        rc.Plan,
		OutputPath:  rc.OutputPath,
		SRTPath:     rc.SRTPath,
		ArchivePath: rc.ArchivePath,
		LogPath:     logPath,
		Elapsed:     elapsed,
		CacheHits:   rc.CacheHits(),
	}, nil
}

func (p *Pipeline) execute(ctx context.Context, rc *RunContext) error {
	if !p.skipPreflight {
		if failed := preflight.Failures(preflight.RunLocal(ctx, p.cfg)); len(failed) > 0 {
			return services.Wrap(services.ErrConfiguration, "preflight", "readiness checks", preflight.Summary(failed), nil)
		}
	}

	if err := os.MkdirAll(rc.WorkDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "create work dir", rc.WorkDir, err)
	}
	if !p.cfg.Render.KeepWorkFiles {
		defer func() {
			if err := os.RemoveAll(rc.WorkDir); err != nil {
				rc.Logger.Warn("failed to remove work dir", logging.String("path", rc.WorkDir), logging.Error(err))
			}
		}()
	}

	if err := p.runStage(ctx, rc, StageStory, p.fetchStory); err != nil {
		return err
	}
	if err := p.runStage(ctx, rc, StageNarration, p.narrate); err != nil {
		return err
	}
	if err := p.prepareMedia(ctx, rc); err != nil {
		return err
	}
	if err := p.runStage(ctx, rc, StagePlan, p.plan); err != nil {
		return err
	}

	unlock, err := p.lockOutput(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := p.runStage(ctx, rc, StageRender, p.render); err != nil {
		return err
	}
	if p.archiver != nil {
		// Archival is best effort; the primary render already succeeded.
		if err := p.runStage(ctx, rc, StageArchive, p.archive); err != nil {
			logging.WarnWithContext(rc.Logger, "archive encode failed", "archive_failed",
				logging.String(logging.FieldImpact, "no AV1 archive copy for this run"),
				logging.Error(err),
			)
		}
	}
	return nil
}

type stageFunc func(ctx context.Context, rc *RunContext, logger *slog.Logger) error

func (p *Pipeline) runStage(ctx context.Context, rc *RunContext, name string, fn stageFunc) error {
	stageCtx := services.WithStage(ctx, name)
	stageLogger := logging.WithContext(stageCtx, rc.Logger)
	started := p.now()
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx, rc, stageLogger); err != nil {
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(err),
		)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", p.now().Sub(started)),
	)
	return nil
}

func (p *Pipeline) recordFailure(ctx context.Context, rc *RunContext, runErr error) {
	status := services.FailureStatus(runErr)
	stage := failedStage(runErr)
	rc.Logger.Error("run failed",
		logging.String(logging.FieldEventType, "run_failure"),
		logging.String("resolved_status", string(status)),
		logging.Bool("retryable", services.IsRetryable(runErr)),
		logging.Error(runErr),
	)

	// The caller's context may already be cancelled; still record the outcome.
	recordCtx := context.WithoutCancel(ctx)
	if err := p.store.FinishRun(recordCtx, rc.ID, store.RunResult{
		Status:       status,
		StoryID:      rc.Story.ID,
		Title:        rc.Story.Title,
		ErrorMessage: runErr.Error(),
	}); err != nil {
		rc.Logger.Warn("failed to record run failure", logging.Error(err))
	}
	label := "storyreel run " + shortID(rc.ID)
	if stage != "" {
		label = stage + " (" + label + ")"
	}
	if err := p.notifier.NotifyError(recordCtx, runErr, label); err != nil {
		rc.Logger.Warn("error notification failed", logging.Error(err))
	}
}

// failedStage extracts the stage name Wrap placed after the marker.
func failedStage(err error) string {
	msg := err.Error()
	for _, stage := range []string{StageStory, StageNarration, StageVoiceover, StageBackground, StagePlan, StageRender, "preflight"} {
		if strings.Contains(msg, ": "+stage+": ") {
			return stage
		}
	}
	return ""
}

func (p *Pipeline) lockOutput(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(p.cfg.Paths.OutputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageRender, "create output dir", p.cfg.Paths.OutputDir, err)
	}
	lock := flock.New(filepath.Join(p.cfg.Paths.OutputDir, lockFileName))
	lockCtx, cancel := context.WithTimeout(ctx, p.lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, services.Wrap(services.ErrExternalTool, StageRender, "lock output dir", "", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, StageRender, "lock output dir", lock.Path(), ErrBusy)
	}
	return func() { _ = lock.Unlock() }, nil
}

func httpClient(timeoutSeconds int) *http.Client {
	if timeoutSeconds <= 0 {
		return nil
	}
	return &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
