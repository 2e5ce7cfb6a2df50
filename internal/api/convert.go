package api

import (
	"storyreel/internal/captions"
	"storyreel/internal/store"
)

// FromRun converts a ledger row to its API representation.
func FromRun(run store.Run) Run {
	dto := Run{
		ID:              run.ID,
		Subreddit:       run.Subreddit,
		StoryID:         run.StoryID,
		Title:           run.Title,
		Status:          string(run.Status),
		ErrorMessage:    run.ErrorMessage,
		OutputPath:      run.OutputPath,
		LogPath:         run.LogPath,
		CaptionCount:    run.CaptionCount,
		DurationSeconds: run.DurationSeconds,
	}
	if !run.StartedAt.IsZero() {
		dto.StartedAt = run.StartedAt.UTC().Format(dateTimeFormat)
	}
	if run.FinishedAt != nil {
		dto.FinishedAt = run.FinishedAt.UTC().Format(dateTimeFormat)
		dto.ElapsedSeconds = run.Elapsed().Seconds()
	}
	return dto
}

// FromRuns converts a slice of ledger rows, never returning nil.
func FromRuns(runs []store.Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, run := range runs {
		out = append(out, FromRun(run))
	}
	return out
}

// FromArtifact converts a cache entry.
func FromArtifact(art store.Artifact) CacheEntry {
	entry := CacheEntry{
		Stage:     string(art.Key.Stage),
		Digest:    art.Key.Digest,
		SizeBytes: art.SizeBytes,
		Path:      art.Path,
	}
	if !art.CreatedAt.IsZero() {
		entry.CreatedAt = art.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !art.AccessedAt.IsZero() {
		entry.AccessedAt = art.AccessedAt.UTC().Format(dateTimeFormat)
	}
	return entry
}

// FromPlan converts a layout plan.
func FromPlan(plan captions.LayoutPlan) Plan {
	dto := Plan{
		Frame:                Frame{Width: plan.Frame.Width, Height: plan.Frame.Height},
		TotalDurationSeconds: plan.TotalDurationSeconds,
		IntervalSeconds:      plan.IntervalSeconds,
		OverrunSeconds:       plan.Overrun(),
		Title: Title{
			Text:            plan.Title.Text,
			DurationSeconds: plan.Title.DurationSeconds,
			Position:        string(plan.Title.Position),
			Y:               plan.Title.Y,
		},
		Captions: make([]Caption, 0, len(plan.Captions)),
	}
	for _, ev := range plan.Captions {
		lines := ev.Lines
		if lines == nil {
			lines = []string{}
		}
		dto.Captions = append(dto.Captions, Caption{
			Index:           ev.Index,
			StartSeconds:    ev.StartSeconds,
			DurationSeconds: ev.DurationSeconds,
			EndSeconds:      ev.EndSeconds(),
			Text:            ev.Text,
			Lines:           lines,
			Position:        string(ev.Position),
			Y:               ev.Y,
		})
	}
	return dto
}
