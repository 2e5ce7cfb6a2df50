package captions

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// glyphWidthRatio approximates the advance of an average glyph relative to the
// font size for the bold sans faces used on captions.
const glyphWidthRatio = 0.55

// LineWidth estimates how many display cells fit on one caption line for the
// given frame width and font size. It never returns less than one.
func LineWidth(frameWidth, fontSize int) int {
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}
	usable := frameWidth - DefaultHorizontalInset
	if usable <= 0 {
		return 1
	}
	cells := int(float64(usable) / (float64(fontSize) * glyphWidthRatio))
	if cells < 1 {
		return 1
	}
	return cells
}

// Wrap breaks text into lines of at most width display cells, measuring East
// Asian wide characters as two cells. Words longer than a line stay whole on
// their own line.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width < 1 {
		width = 1
	}

	lines := make([]string, 0, 2)
	var (
		line      strings.Builder
		lineWidth int
	)
	for _, word := range words {
		w := runewidth.StringWidth(word)
		if lineWidth > 0 && lineWidth+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteByte(' ')
			lineWidth++
		}
		line.WriteString(word)
		lineWidth += w
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
