package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached stage artifacts",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var stage string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached artifacts, most recently used first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				artifacts, err := st.List(cmd.Context(), store.Stage(strings.TrimSpace(stage)))
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, artifacts)
				}
				out := cmd.OutOrStdout()
				if len(artifacts) == 0 {
					fmt.Fprintln(out, "Cache is empty")
					return nil
				}
				var total int64
				rows := make([][]string, 0, len(artifacts))
				for _, art := range artifacts {
					total += art.SizeBytes
					rows = append(rows, []string{
						string(art.Key.Stage),
						shortDigest(art.Key.Digest),
						humanize.IBytes(uint64(max(art.SizeBytes, 0))),
						humanize.Time(art.AccessedAt),
						art.Path,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Stage", "Digest", "Size", "Last Used", "Path"}, rows, 2))
				fmt.Fprintf(out, "%d artifacts, %s\n", len(artifacts), humanize.IBytes(uint64(max(total, 0))))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Only list one stage (story, narration, voiceover, background)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				removed, err := st.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached artifacts\n", removed)
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove artifacts not used within --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				removed, err := st.Prune(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cached artifacts unused for %s\n", removed, olderThan)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age since last use before an artifact is removed")
	return cmd
}

func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
