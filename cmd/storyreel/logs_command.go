package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/logs"
	"storyreel/internal/store"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var raw bool
	var level string
	var stage string

	cmd := &cobra.Command{
		Use:   "logs [run-id]",
		Short: "Show the log of a run (the most recent by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := logs.NewFilter(level, stage)
			if err != nil {
				return err
			}
			var path string
			err = ctx.withStore(func(_ *config.Config, st *store.Store) error {
				run, err := resolveRun(cmd, st, args)
				if err != nil {
					return err
				}
				if strings.TrimSpace(run.LogPath) == "" {
					return fmt.Errorf("run %s has no log file", shortRunID(run.ID))
				}
				path = run.LogPath
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			emit := func(line string) error {
				if raw {
					if filter.Match(logs.Parse(line)) {
						fmt.Fprintln(out, line)
					}
					return nil
				}
				if entry := logs.Parse(line); filter.Match(entry) {
					fmt.Fprintln(out, logs.Format(entry))
				}
				return nil
			}

			tail, offset, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				_ = emit(line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, logs.DefaultPollInterval, emit)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Trailing lines to show (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the JSON records unchanged")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (debug, info, warn, error)")
	cmd.Flags().StringVar(&stage, "stage", "", "Only show lines from one stage")
	return cmd
}

func resolveRun(cmd *cobra.Command, st *store.Store, args []string) (store.Run, error) {
	if len(args) == 1 {
		return st.GetRun(cmd.Context(), args[0])
	}
	runs, err := st.ListRuns(cmd.Context(), 1)
	if err != nil {
		return store.Run{}, err
	}
	if len(runs) == 0 {
		return store.Run{}, errors.New("no runs recorded")
	}
	return runs[0], nil
}
