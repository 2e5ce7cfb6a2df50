package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"storyreel/internal/preflight"
	"storyreel/internal/store"
)

type checkLevel int

const (
	levelInfo checkLevel = iota
	levelOK
	levelWarn
	levelError
)

const (
	statusLabelWidth = 22
	statusIndent     = "  "
)

var levelStyles = map[checkLevel]struct {
	label string
	color text.Colors
}{
	levelInfo:  {"INFO", text.Colors{text.FgBlue}},
	levelOK:    {"OK", text.Colors{text.FgGreen}},
	levelWarn:  {"WARN", text.Colors{text.FgYellow}},
	levelError: {"ERROR", text.Colors{text.FgRed}},
}

// statusReport collects the sections printed by `storyreel status`.
type statusReport struct {
	colorize bool
	lines    []string
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	if r.colorize {
		heading, rule = text.FgBlue.Sprint(heading), text.FgBlue.Sprint(rule)
	}
	r.lines = append(r.lines, heading, rule)
}

func (r *statusReport) line(label string, level checkLevel, message string) {
	r.lines = append(r.lines, statusLine(label, level, message, r.colorize))
}

// checks adds one line per preflight result. Optional failures warn; any
// other failure is an error.
func (r *statusReport) checks(results []preflight.Result) {
	for _, res := range results {
		level := levelOK
		if res.Blocking() {
			level = levelError
		} else if !res.Passed {
			level = levelWarn
		}
		r.line(res.Name, level, res.Detail)
	}
}

func (r *statusReport) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, strings.Join(r.lines, "\n")+"\n")
	return int64(n), err
}

func statusLine(label string, level checkLevel, message string, colorize bool) string {
	style := levelStyles[level]
	line := fmt.Sprintf("%s%-*s [%s]", statusIndent, statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.color.Sprint(line)
	}
	return line
}

func runStatusLevel(status store.RunStatus) checkLevel {
	switch status {
	case store.RunStatusSucceeded:
		return levelOK
	case store.RunStatusReview:
		return levelWarn
	case store.RunStatusFailed:
		return levelError
	}
	return levelInfo
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
