package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/captions"
	"storyreel/internal/config"
	"storyreel/internal/media/ffprobe"
	"storyreel/internal/pipeline"
)

type planFlags struct {
	file           string
	duration       float64
	audio          string
	title          string
	width          int
	height         int
	minWords       int
	maxWords       int
	displaySeconds float64
	format         string
	output         string
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "plan [narration text]",
		Short: "Print the caption layout for a narration",
		Long: `Plan splits narration into timed captions and assigns each a screen band.

The narration comes from the arguments or --file ("-" reads stdin). The
duration is given with --duration or probed from a voiceover with --audio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			format, err := parseFormat(flags.format, formatTable, formatJSON, formatYAML, formatSRT)
			if err != nil {
				return err
			}
			narration, err := readNarration(cmd, args, flags.file)
			if err != nil {
				return err
			}
			duration, err := planDuration(cmd, cfg, flags)
			if err != nil {
				return err
			}

			opts := pipeline.PlannerOptions(cfg)
			if flags.minWords != 0 {
				opts.MinWords = flags.minWords
			}
			if flags.maxWords != 0 {
				opts.MaxWords = flags.maxWords
			}
			if flags.displaySeconds != 0 {
				opts.DisplaySeconds = flags.displaySeconds
			}
			frame := pipeline.Frame(cfg)
			if flags.width > 0 {
				frame.Width = flags.width
			}
			if flags.height > 0 {
				frame.Height = flags.height
			}
			title := pipeline.NormalizeTitle(flags.title, "", cfg.Captions.DefaultTitle, cfg.Captions.TitleCase, cfg.Captions.TitleMaxRunes)

			plan, err := captions.NewPlanner(opts).Plan(captions.Request{
				Narration:       narration,
				DurationSeconds: duration,
				Frame:           frame,
				Title:           title,
			})
			if err != nil {
				return err
			}

			if flags.output != "" {
				f, err := os.Create(flags.output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				cmd.SetOut(f)
			}
			return writePlan(cmd, plan, format)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read narration from a file (\"-\" for stdin)")
	cmd.Flags().Float64VarP(&flags.duration, "duration", "d", 0, "Narration duration in seconds")
	cmd.Flags().StringVar(&flags.audio, "audio", "", "Probe the duration from this audio file")
	cmd.Flags().StringVar(&flags.title, "title", "", "Title overlay text")
	cmd.Flags().IntVar(&flags.width, "width", 0, "Frame width in pixels (default from config)")
	cmd.Flags().IntVar(&flags.height, "height", 0, "Frame height in pixels (default from config)")
	cmd.Flags().IntVar(&flags.minWords, "min-words", 0, "Words a phrase needs before a sentence end closes it")
	cmd.Flags().IntVar(&flags.maxWords, "max-words", 0, "Phrase length at which clause punctuation closes it (-1 disables)")
	cmd.Flags().Float64Var(&flags.displaySeconds, "display-seconds", 0, "Seconds each caption stays on screen")
	cmd.Flags().StringVar(&flags.format, "format", string(formatTable), "Output format: table, json, yaml or srt")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("duration", "audio")

	return cmd
}

func readNarration(cmd *cobra.Command, args []string, file string) (string, error) {
	file = strings.TrimSpace(file)
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass narration as arguments or --file, not both")
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read narration: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", errors.New("narration text or --file is required")
	}
}

func planDuration(cmd *cobra.Command, cfg *config.Config, flags planFlags) (float64, error) {
	if audio := strings.TrimSpace(flags.audio); audio != "" {
		seconds, err := ffprobe.AudioDuration(cmd.Context(), cfg.FFprobeBinary(), audio)
		if err != nil {
			return 0, fmt.Errorf("probe audio duration: %w", err)
		}
		return seconds, nil
	}
	if !cmd.Flags().Changed("duration") {
		return 0, errors.New("--duration or --audio is required")
	}
	return flags.duration, nil
}

func writePlan(cmd *cobra.Command, plan captions.LayoutPlan, format outputFormat) error {
	switch format {
	case formatJSON:
		return writeJSON(cmd, plan)
	case formatYAML:
		return writeYAML(cmd, plan)
	case formatSRT:
		return captions.WriteSRT(cmd.OutOrStdout(), plan)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Title:    %s (y=%d)\n", displayTitle(plan.Title.Text), plan.Title.Y)
	fmt.Fprintf(out, "Frame:    %dx%d\n", plan.Frame.Width, plan.Frame.Height)
	fmt.Fprintf(out, "Duration: %ss, interval %ss\n", formatSeconds(plan.TotalDurationSeconds), formatSeconds(plan.IntervalSeconds))
	if overrun := plan.Overrun(); overrun > 0 {
		fmt.Fprintf(out, "Overrun:  last caption ends %ss after the narration\n", formatSeconds(overrun))
	}
	if len(plan.Captions) == 0 {
		fmt.Fprintln(out, "No captions")
		return nil
	}

	rows := make([][]string, 0, len(plan.Captions))
	for _, ev := range plan.Captions {
		rows = append(rows, []string{
			strconv.Itoa(ev.Index + 1),
			formatSeconds(ev.StartSeconds),
			formatSeconds(ev.EndSeconds()),
			string(ev.Position),
			strconv.Itoa(ev.Y),
			strings.Join(ev.Lines, " / "),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Start", "End", "Band", "Y", "Text"}, rows, 0, 1, 2, 4))
	return nil
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(none)"
	}
	return title
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
