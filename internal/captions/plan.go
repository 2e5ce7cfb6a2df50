package captions

import (
	"math"
	"strings"
)

// Planner builds layout plans with a fixed set of options.
type Planner struct {
	opts Options
}

// NewPlanner returns a planner using opts, with zero fields replaced by the
// defaults.
func NewPlanner(opts Options) *Planner {
	return &Planner{opts: opts.withDefaults()}
}

// Options reports the effective options of the planner.
func (p *Planner) Options() Options {
	return p.opts
}

// Plan builds a layout plan with the default options.
func Plan(req Request) (LayoutPlan, error) {
	return NewPlanner(DefaultOptions()).Plan(req)
}

// Plan segments the narration, times and positions each phrase, and attaches
// the title overlay. A duration that is not a positive finite number yields an
// *InvalidDurationError. Empty narration is not an error: the plan then holds
// only the title overlay.
func (p *Planner) Plan(req Request) (LayoutPlan, error) {
	d := req.DurationSeconds
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return LayoutPlan{}, &InvalidDurationError{Duration: d}
	}

	frame := req.Frame
	if !frame.valid() {
		frame = FrameSize{Width: DefaultFrameWidth, Height: DefaultFrameHeight}
	}

	phrases := Segment(req.Narration, p.opts)
	starts, interval := AssignTimestamps(len(phrases), d)
	lineWidth := LineWidth(frame.Width, p.opts.FontSize)

	events := make([]CaptionEvent, len(phrases))
	for i, phrase := range phrases {
		band := PositionFor(i)
		events[i] = CaptionEvent{
			Index:           i,
			StartSeconds:    starts[i],
			DurationSeconds: p.opts.DisplaySeconds,
			Text:            phrase,
			Lines:           Wrap(phrase, lineWidth),
			Position:        band,
			Y:               bandY(band, frame.Height, p.opts),
		}
	}

	return LayoutPlan{
		Frame:                frame,
		TotalDurationSeconds: d,
		IntervalSeconds:      interval,
		Title: TitleOverlay{
			Text:            strings.TrimSpace(req.Title),
			DurationSeconds: d,
			Position:        BandTop,
			Y:               bandY(BandTop, frame.Height, p.opts),
		},
		Captions: events,
	}, nil
}

// Overrun reports how far the last caption runs past the end of the narration.
// It is zero when every caption finishes in time.
func (lp LayoutPlan) Overrun() float64 {
	if len(lp.Captions) == 0 {
		return 0
	}
	over := lp.Captions[len(lp.Captions)-1].EndSeconds() - lp.TotalDurationSeconds
	if over < 0 {
		return 0
	}
	return over
}
