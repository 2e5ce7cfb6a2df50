package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/pipeline"
	"storyreel/internal/store"
)

type renderSummary struct {
	RunID          string   `json:"run_id"`
	StoryID        string   `json:"story_id,omitempty"`
	Subreddit      string   `json:"subreddit,omitempty"`
	Title          string   `json:"title"`
	Output         string   `json:"output"`
	Subtitles      string   `json:"subtitles,omitempty"`
	Archive        string   `json:"archive,omitempty"`
	Log            string   `json:"log,omitempty"`
	Captions       int      `json:"captions"`
	DurationSecs   float64  `json:"duration_seconds"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	CacheHits      []string `json:"cache_hits,omitempty"`
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var req pipeline.Request
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch a story and render a narrated, captioned video",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				p, err := pipeline.New(cfg, st, logger)
				if err != nil {
					return err
				}
				result, err := p.Run(cmd.Context(), req)
				if err != nil {
					return err
				}
				summary := renderSummary{
					RunID:          result.RunID,
					StoryID:        result.Story.ID,
					Subreddit:      result.Story.Subreddit,
					Title:          result.Plan.Title.Text,
					Output:         result.OutputPath,
					Subtitles:      result.SRTPath,
					Archive:        result.ArchivePath,
					Log:            result.LogPath,
					Captions:       len(result.Plan.Captions),
					DurationSecs:   result.Plan.TotalDurationSeconds,
					ElapsedSeconds: result.Elapsed.Seconds(),
					CacheHits:      result.CacheHits,
				}
				if jsonOut {
					return writeJSON(cmd, summary)
				}
				printRenderSummary(cmd, summary)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.Subreddit, "subreddit", "r", "", "Subreddit to pull the top story from (default from config)")
	cmd.Flags().StringVar(&req.StoryFile, "story-file", "", "Narrate a local text file; its first line is the title")
	cmd.Flags().StringVar(&req.Title, "title", "", "Override the title overlay")
	cmd.Flags().StringVar(&req.Background, "background", "", "Use a local background clip instead of searching Pexels")
	cmd.Flags().StringVarP(&req.Output, "output", "o", "", "Output file (default output_dir/<slug>-<run>.mp4)")
	cmd.Flags().BoolVar(&req.Refresh, "refresh", false, "Ignore cached artifacts")
	cmd.Flags().BoolVar(&req.SkipRewrite, "skip-rewrite", false, "Narrate the story verbatim")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	cmd.MarkFlagsMutuallyExclusive("subreddit", "story-file")

	return cmd
}

func printRenderSummary(cmd *cobra.Command, s renderSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rendered %s\n", s.Output)
	fmt.Fprintf(out, "  Run:       %s\n", s.RunID)
	fmt.Fprintf(out, "  Title:     %s\n", displayTitle(s.Title))
	fmt.Fprintf(out, "  Captions:  %d over %ss\n", s.Captions, formatSeconds(s.DurationSecs))
	if s.Subtitles != "" {
		fmt.Fprintf(out, "  Subtitles: %s\n", s.Subtitles)
	}
	if s.Archive != "" {
		fmt.Fprintf(out, "  Archive:   %s\n", s.Archive)
	}
	if len(s.CacheHits) > 0 {
		fmt.Fprintf(out, "  Cached:    %s\n", strings.Join(s.CacheHits, ", "))
	}
	fmt.Fprintf(out, "  Elapsed:   %s\n", (time.Duration(s.ElapsedSeconds * float64(time.Second))).Round(time.Second))
}
