package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storyreel/internal/captions"
	"storyreel/internal/compositor"
	"storyreel/internal/services/drapto"
	"storyreel/internal/services/pexels"
	"storyreel/internal/services/reddit"
)

// Stage names used for logging, errors and cache keys.
const (
	StageStory      = "story"
	StageNarration  = "narration"
	StageVoiceover  = "voiceover"
	StageBackground = "background"
	StagePlan       = "plan"
	StageRender     = "render"
	StageArchive    = "archive"
)

// StorySource returns the story to narrate.
type StorySource interface {
	TopStory(ctx context.Context, subreddit string) (reddit.Story, error)
}

// Narrator rewrites a story for narration.
type Narrator interface {
	RewriteStory(ctx context.Context, story string, maxWords int) (string, error)
}

// Synthesizer writes a voiceover for text to dest.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, dest string) error
}

// FootageSource finds and downloads background video.
type FootageSource interface {
	FindFootage(ctx context.Context, query, orientation string, targetHeight int) (pexels.Video, pexels.VideoFile, error)
	Download(ctx context.Context, file pexels.VideoFile, dest string) error
}

// Renderer composites the final video.
type Renderer interface {
	Render(ctx context.Context, job compositor.Job) error
}

// DurationProber measures the playback length of an audio file in seconds.
type DurationProber func(ctx context.Context, path string) (float64, error)

// Request describes one pipeline run. The zero value fetches the configured
// subreddit's top story.
type Request struct {
	Subreddit string
	// StoryFile narrates a local text file instead of fetching from Reddit.
	// Its first line is the title.
	StoryFile string
	// Title overrides the title overlay text.
	Title string
	// Background uses a local clip instead of searching Pexels.
	Background string
	// Output is the destination file. Empty derives a name in output_dir.
	Output string
	// Refresh ignores cached artifacts and recomputes every stage.
	Refresh bool
	// SkipRewrite narrates the story text verbatim.
	SkipRewrite bool
}

// Result summarizes a successful run.
type Result struct {
	RunID       string
	Story       reddit.Story
	Narration   string
	Plan        captions.LayoutPlan
	OutputPath  string
	SRTPath     string
	ArchivePath string
	LogPath     string
	Elapsed     time.Duration
	CacheHits   []string
}

// RunContext carries the state of one run between stages.
type RunContext struct {
	ID      string
	Request Request
	Logger  *slog.Logger
	WorkDir string

	Story          reddit.Story
	Narration      string
	VoicePath      string
	BackgroundPath string
	Duration       float64
	Plan           captions.LayoutPlan
	OutputPath     string
	SRTPath        string
	ArchivePath    string

	mu        sync.Mutex
	cacheHits []string
}

func (rc *RunContext) noteCacheHit(stage string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.cacheHits = append(rc.cacheHits, stage)
}

// CacheHits lists the stages served from the artifact cache.
func (rc *RunContext) CacheHits() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]string(nil), rc.cacheHits...)
}

// Archiver produces an archival encode of the rendered file.
type Archiver = drapto.Client
