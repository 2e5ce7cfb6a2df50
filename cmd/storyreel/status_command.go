package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/preflight"
	"storyreel/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check binaries, directories, credentials and run history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			report := &statusReport{colorize: shouldColorize(out)}

			source := ctx.configPath
			if !ctx.configSeen {
				source += " (not found, using defaults)"
			}
			report.section("Configuration")
			report.line("Config", levelInfo, source)
			report.line("Subreddit", levelInfo, "r/"+cfg.Reddit.Subreddit)
			report.line("AV1 archive", levelInfo, yesNo(cfg.Render.ArchiveAV1))

			var results []preflight.Result
			if offline {
				results = preflight.RunLocal(cmd.Context(), cfg)
			} else {
				results = preflight.RunAll(cmd.Context(), cfg)
			}
			report.section("Preflight")
			report.checks(results)

			err = ctx.withStore(func(_ *config.Config, st *store.Store) error {
				stats, err := st.RunStats(cmd.Context())
				if err != nil {
					return err
				}
				report.section("Runs")
				if len(stats) == 0 {
					report.line("History", levelInfo, "no runs yet")
					return nil
				}
				statuses := make([]store.RunStatus, 0, len(stats))
				for status := range stats {
					statuses = append(statuses, status)
				}
				slices.Sort(statuses)
				for _, status := range statuses {
					report.line(string(status), runStatusLevel(status), strconv.Itoa(stats[status]))
				}
				return nil
			})
			if err != nil {
				return err
			}

			if _, err := report.WriteTo(out); err != nil {
				return err
			}
			if failed := preflight.Failures(results); len(failed) > 0 {
				return fmt.Errorf("%d blocking check(s) failed: %s", len(failed), preflight.Summary(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network checks such as the LLM health check")
	return cmd
}
