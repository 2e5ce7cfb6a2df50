package captions

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteSRT writes the plan's captions as a SubRip document. Each cue uses the
// caption's wrapped lines, falling back to the raw text.
func WriteSRT(w io.Writer, plan LayoutPlan) error {
	bw := bufio.NewWriter(w)
	for i, event := range plan.Captions {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%d\n%s --> %s\n", i+1, FormatSRTTimestamp(event.StartSeconds), FormatSRTTimestamp(event.EndSeconds()))
		lines := event.Lines
		if len(lines) == 0 {
			lines = []string{event.Text}
		}
		for _, line := range lines {
			bw.WriteString(line)
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}

// FormatSRTTimestamp renders seconds as HH:MM:SS,mmm, rounding to the nearest
// millisecond. Negative values clamp to zero.
func FormatSRTTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	total /= 1000
	s := total % 60
	total /= 60
	m := total % 60
	h := total / 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseSRTTimestamp parses HH:MM:SS,mmm (a period is accepted in place of the
// comma) into seconds.
func ParseSRTTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	secs, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+secs) + float64(millis)/1000, nil
}
