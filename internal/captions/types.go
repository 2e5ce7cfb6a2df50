package captions

// Band identifies a vertical screen band used to place overlay text.
type Band string

const (
	// BandA is the lower caption band, used for even caption indexes.
	BandA Band = "band_a"
	// BandB is the upper caption band, used for odd caption indexes.
	BandB Band = "band_b"
	// BandTop is the fixed band reserved for the title overlay.
	BandTop Band = "top"
)

const (
	DefaultMinWords        = 4
	DefaultMaxWords        = 10
	DefaultDisplaySeconds  = 3.0
	DefaultBandAOffset     = 250
	DefaultBandBOffset     = 300
	DefaultTitleTopRatio   = 0.12
	DefaultFontSize        = 50
	DefaultTitleFontSize   = 60
	DefaultFrameWidth      = 1080
	DefaultFrameHeight     = 1920
	DefaultHorizontalInset = 120

	// fallbackInterval spaces captions when there are no phrases to divide the
	// duration by.
	fallbackInterval = 3.0
)

// FrameSize is the pixel size of the rendered video.
type FrameSize struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (f FrameSize) valid() bool {
	return f.Width > 0 && f.Height > 0
}

// CaptionEvent is one caption shown on screen.
type CaptionEvent struct {
	Index           int      `json:"index" yaml:"index"`
	StartSeconds    float64  `json:"start_seconds" yaml:"start_seconds"`
	DurationSeconds float64  `json:"duration_seconds" yaml:"duration_seconds"`
	Text            string   `json:"text" yaml:"text"`
	Lines           []string `json:"lines" yaml:"lines"`
	Position        Band     `json:"position" yaml:"position"`
	Y               int      `json:"y" yaml:"y"`
}

// EndSeconds returns the time the caption leaves the screen.
func (e CaptionEvent) EndSeconds() float64 {
	return e.StartSeconds + e.DurationSeconds
}

// TitleOverlay is the persistent title drawn for the whole video.
type TitleOverlay struct {
	Text            string  `json:"text" yaml:"text"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	Position        Band    `json:"position" yaml:"position"`
	Y               int     `json:"y" yaml:"y"`
}

// LayoutPlan is the complete caption layout for one video.
type LayoutPlan struct {
	Frame                FrameSize      `json:"frame" yaml:"frame"`
	TotalDurationSeconds float64        `json:"total_duration_seconds" yaml:"total_duration_seconds"`
	IntervalSeconds      float64        `json:"interval_seconds" yaml:"interval_seconds"`
	Title                TitleOverlay   `json:"title" yaml:"title"`
	Captions             []CaptionEvent `json:"captions" yaml:"captions"`
}

// Options tunes segmentation and layout. Zero values select the defaults.
type Options struct {
	// MinWords is the word count a phrase must reach before a sentence
	// terminator closes it.
	MinWords int
	// MaxWords lets clause punctuation (",", ";", ":") close a phrase once it
	// is this long. Negative disables the limit.
	MaxWords int
	// DisplaySeconds is how long every caption stays on screen.
	DisplaySeconds float64
	// BandAOffset and BandBOffset are measured up from the bottom edge.
	BandAOffset int
	BandBOffset int
	// TitleTopRatio places the title at this fraction of the frame height.
	TitleTopRatio float64
	// FontSize is the caption font size used to estimate line width.
	FontSize int
}

// DefaultOptions returns the stock layout settings.
func DefaultOptions() Options {
	return Options{
		MinWords:       DefaultMinWords,
		MaxWords:       DefaultMaxWords,
		DisplaySeconds: DefaultDisplaySeconds,
		BandAOffset:    DefaultBandAOffset,
		BandBOffset:    DefaultBandBOffset,
		TitleTopRatio:  DefaultTitleTopRatio,
		FontSize:       DefaultFontSize,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MinWords <= 0 {
		o.MinWords = def.MinWords
	}
	if o.MaxWords == 0 {
		o.MaxWords = def.MaxWords
	}
	if o.DisplaySeconds <= 0 {
		o.DisplaySeconds = def.DisplaySeconds
	}
	if o.BandAOffset <= 0 {
		o.BandAOffset = def.BandAOffset
	}
	if o.BandBOffset <= 0 {
		o.BandBOffset = def.BandBOffset
	}
	if o.TitleTopRatio <= 0 || o.TitleTopRatio >= 1 {
		o.TitleTopRatio = def.TitleTopRatio
	}
	if o.FontSize <= 0 {
		o.FontSize = def.FontSize
	}
	return o
}

// Request carries the inputs for a single plan.
type Request struct {
	Narration       string
	DurationSeconds float64
	Frame           FrameSize
	Title           string
}
