package compositor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storyreel/internal/captions"
)

// Style controls how overlay text is drawn.
type Style struct {
	FontFile      string
	FontSize      int
	TitleFontSize int
	FontColor     string
	BoxColor      string
	BoxBorder     int
	LineSpacing   int
	FPS           int
}

// DefaultStyle matches the stock caption look: white text on a translucent box.
func DefaultStyle() Style {
	return Style{
		FontSize:      captions.DefaultFontSize,
		TitleFontSize: captions.DefaultTitleFontSize,
		FontColor:     "white",
		BoxColor:      "black@0.5",
		BoxBorder:     20,
		LineSpacing:   10,
		FPS:           24,
	}
}

func (s Style) withDefaults() Style {
	def := DefaultStyle()
	if s.FontSize <= 0 {
		s.FontSize = def.FontSize
	}
	if s.TitleFontSize <= 0 {
		s.TitleFontSize = def.TitleFontSize
	}
	if strings.TrimSpace(s.FontColor) == "" {
		s.FontColor = def.FontColor
	}
	if strings.TrimSpace(s.BoxColor) == "" {
		s.BoxColor = def.BoxColor
	}
	if s.BoxBorder < 0 {
		s.BoxBorder = 0
	}
	if s.LineSpacing < 0 {
		s.LineSpacing = 0
	}
	if s.FPS <= 0 {
		s.FPS = def.FPS
	}
	return s
}

// TextFiles points at the files holding overlay text. Captions[i] belongs to
// plan.Captions[i]. Title may be empty when the plan has no title text.
type TextFiles struct {
	Title    string
	Captions []string
}

// VideoLabel and AudioLabel name the filter graph outputs to map.
const (
	VideoLabel = "[vout]"
	AudioLabel = "1:a"
)

// BuildFilterGraph returns the ffmpeg filter_complex for plan. Input 0 is the
// background video. It is scaled to cover the frame and center-cropped, then
// the title and each caption are drawn with drawtext reading from textfile=.
func BuildFilterGraph(plan captions.LayoutPlan, style Style, files TextFiles) (string, error) {
	if plan.Frame.Width <= 0 || plan.Frame.Height <= 0 {
		return "", fmt.Errorf("invalid frame size %dx%d", plan.Frame.Width, plan.Frame.Height)
	}
	if len(files.Captions) != len(plan.Captions) {
		return "", fmt.Errorf("caption text files: have %d, need %d", len(files.Captions), len(plan.Captions))
	}
	hasTitle := strings.TrimSpace(plan.Title.Text) != ""
	if hasTitle && strings.TrimSpace(files.Title) == "" {
		return "", errors.New("title text file is required when the plan has a title")
	}
	style = style.withDefaults()

	w := strconv.Itoa(plan.Frame.Width)
	h := strconv.Itoa(plan.Frame.Height)

	var stages []string
	stages = append(stages, fmt.Sprintf(
		"[0:v]scale=%s:%s:force_original_aspect_ratio=increase,crop=%s:%s,setsar=1,fps=%d",
		w, h, w, h, style.FPS))

	if hasTitle {
		stages = append(stages, drawtext(files.Title, style, style.TitleFontSize, plan.Title.Y, ""))
	}
	for i, ev := range plan.Captions {
		enable := fmt.Sprintf("between(t\\,%s\\,%s)", formatSeconds(ev.StartSeconds), formatSeconds(ev.EndSeconds()))
		stages = append(stages, drawtext(files.Captions[i], style, style.FontSize, ev.Y, enable))
	}

	return strings.Join(stages, ",") + VideoLabel, nil
}

func drawtext(textFile string, style Style, fontSize, y int, enable string) string {
	opts := []string{}
	if font := strings.TrimSpace(style.FontFile); font != "" {
		opts = append(opts, "fontfile="+escapeFilterValue(font))
	}
	opts = append(opts,
		"textfile="+escapeFilterValue(textFile),
		"fontsize="+strconv.Itoa(fontSize),
		"fontcolor="+style.FontColor,
		"line_spacing="+strconv.Itoa(style.LineSpacing),
		"box=1",
		"boxcolor="+style.BoxColor,
		"boxborderw="+strconv.Itoa(style.BoxBorder),
		"x=(w-text_w)/2",
		"y="+strconv.Itoa(y),
	)
	if enable != "" {
		opts = append(opts, "enable="+enable)
	}
	return "drawtext=" + strings.Join(opts, ":")
}

// escapeFilterValue escapes characters with meaning inside a filter option or
// between filters.
func escapeFilterValue(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '\\', '\'', ':', ',', ';', '[', ']':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
