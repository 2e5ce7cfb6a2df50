package pipeline

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storyreel/internal/captions"
	"storyreel/internal/config"
)

// PlannerOptions maps the [captions] config section onto planner options.
func PlannerOptions(cfg *config.Config) captions.Options {
	c := cfg.Captions
	return captions.Options{
		MinWords:       c.MinWords,
		MaxWords:       c.MaxWords,
		DisplaySeconds: c.DisplaySeconds,
		BandAOffset:    c.BandAOffset,
		BandBOffset:    c.BandBOffset,
		TitleTopRatio:  c.TitleTopRatio,
		FontSize:       c.FontSize,
	}
}

// Frame returns the configured render frame.
func Frame(cfg *config.Config) captions.FrameSize {
	return captions.FrameSize{Width: cfg.Render.Width, Height: cfg.Render.Height}
}

// NormalizeTitle picks the overlay title: the explicit override, else the
// story title, else fallback. Title casing keeps existing capitals so
// acronyms like AITA survive. Titles wider than maxRunes cells are truncated
// with an ellipsis.
func NormalizeTitle(override, storyTitle, fallback string, titleCase bool, maxRunes int) string {
	title := strings.Join(strings.Fields(override), " ")
	if title == "" {
		title = strings.Join(strings.Fields(storyTitle), " ")
	}
	if title == "" {
		title = strings.TrimSpace(fallback)
	}
	if titleCase {
		title = cases.Title(language.English, cases.NoLower).String(title)
	}
	if maxRunes > 0 && runewidth.StringWidth(title) > maxRunes {
		title = runewidth.Truncate(title, maxRunes, "…")
	}
	return title
}

// Slug turns a title into a lowercase, hyphen-separated file name stem.
func Slug(title string, maxLen int) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
		if maxLen > 0 && b.Len() >= maxLen {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "story"
	}
	return slug
}

// splitStoryFile treats the first non-empty line as the title and the rest as the body.
func splitStoryFile(content string) (string, string) {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	title, body, found := strings.Cut(content, "\n")
	if !found {
		return strings.TrimSpace(title), ""
	}
	return strings.TrimSpace(title), strings.TrimSpace(body)
}
