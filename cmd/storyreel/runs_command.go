package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/store"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show pipeline run history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				if len(args) == 1 {
					run, err := st.GetRun(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if jsonOut {
						return writeJSON(cmd, run)
					}
					printRun(cmd, run)
					return nil
				}

				runs, err := st.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					if runs == nil {
						runs = []store.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortRunID(run.ID),
						string(run.Status),
						run.Subreddit,
						runewidth.Truncate(run.Title, 40, "…"),
						strconv.Itoa(run.CaptionCount),
						humanize.Time(run.StartedAt),
						elapsedLabel(run),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Run", "Status", "Subreddit", "Title", "Captions", "Started", "Elapsed"}, rows, 4, 6))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.AddCommand(newRunsAbandonCommand(ctx))
	return cmd
}

func newRunsAbandonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Mark runs left in the running state by a crash as failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				n, err := st.MarkAbandoned(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d run(s) as failed\n", n)
				return nil
			})
		},
	}
}

func printRun(cmd *cobra.Command, run store.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:       %s\n", run.ID)
	fmt.Fprintf(out, "Status:    %s\n", run.Status)
	if run.Subreddit != "" {
		fmt.Fprintf(out, "Subreddit: r/%s\n", run.Subreddit)
	}
	if run.StoryID != "" {
		fmt.Fprintf(out, "Story:     %s\n", run.StoryID)
	}
	fmt.Fprintf(out, "Title:     %s\n", displayTitle(run.Title))
	fmt.Fprintf(out, "Captions:  %d over %ss\n", run.CaptionCount, formatSeconds(run.DurationSeconds))
	fmt.Fprintf(out, "Started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Elapsed:   %s\n", elapsedLabel(run))
	if run.OutputPath != "" {
		fmt.Fprintf(out, "Output:    %s\n", run.OutputPath)
	}
	if run.LogPath != "" {
		fmt.Fprintf(out, "Log:       %s\n", run.LogPath)
	}
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:     %s\n", run.ErrorMessage)
	}
}

func elapsedLabel(run store.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.Elapsed().Round(time.Second).String()
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
