package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Run describes a pipeline run in a transport-friendly format.
type Run struct {
	ID              string  `json:"id"`
	Subreddit       string  `json:"subreddit,omitempty"`
	StoryID         string  `json:"storyId,omitempty"`
	Title           string  `json:"title,omitempty"`
	Status          string  `json:"status"`
	ErrorMessage    string  `json:"errorMessage,omitempty"`
	OutputPath      string  `json:"outputPath,omitempty"`
	LogPath         string  `json:"logPath,omitempty"`
	CaptionCount    int     `json:"captionCount"`
	DurationSeconds float64 `json:"durationSeconds"`
	StartedAt       string  `json:"startedAt,omitempty"`
	FinishedAt      string  `json:"finishedAt,omitempty"`
	ElapsedSeconds  float64 `json:"elapsedSeconds,omitempty"`
}

// RunListResponse wraps a collection of runs.
type RunListResponse struct {
	Runs []Run `json:"runs"`
}

// RunResponse wraps a single run.
type RunResponse struct {
	Run Run `json:"run"`
}

// CacheEntry describes a cached stage artifact.
type CacheEntry struct {
	Stage      string `json:"stage"`
	Digest     string `json:"digest"`
	SizeBytes  int64  `json:"sizeBytes"`
	Path       string `json:"path"`
	CreatedAt  string `json:"createdAt,omitempty"`
	AccessedAt string `json:"accessedAt,omitempty"`
}

// CacheListResponse wraps cached artifacts.
type CacheListResponse struct {
	Entries []CacheEntry `json:"entries"`
}

// HealthResponse reports server readiness.
type HealthResponse struct {
	Status    string         `json:"status"`
	DBPath    string         `json:"dbPath"`
	RunCounts map[string]int `json:"runCounts"`
}

// PlanOptions overrides the configured caption settings for one request.
type PlanOptions struct {
	MinWords       int     `json:"minWords" validate:"omitempty,min=1,max=100"`
	MaxWords       int     `json:"maxWords" validate:"omitempty,min=-1,max=200"`
	DisplaySeconds float64 `json:"displaySeconds" validate:"omitempty,gt=0,lte=60"`
}

// PlanRequest is the body of POST /api/plan. Duration is required but its
// value is checked by the planner so that bad durations surface as 422.
type PlanRequest struct {
	Narration       string       `json:"narration" validate:"max=200000"`
	DurationSeconds *float64     `json:"durationSeconds" validate:"required"`
	Width           int          `json:"width" validate:"omitempty,min=16,max=7680"`
	Height          int          `json:"height" validate:"omitempty,min=16,max=7680"`
	Title           string       `json:"title" validate:"max=300"`
	Options         *PlanOptions `json:"options"`
}

// Frame is the rendered video size.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Caption is one timed caption.
type Caption struct {
	Index           int      `json:"index"`
	StartSeconds    float64  `json:"startSeconds"`
	DurationSeconds float64  `json:"durationSeconds"`
	EndSeconds      float64  `json:"endSeconds"`
	Text            string   `json:"text"`
	Lines           []string `json:"lines"`
	Position        string   `json:"position"`
	Y               int      `json:"y"`
}

// Title is the persistent title overlay.
type Title struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"durationSeconds"`
	Position        string  `json:"position"`
	Y               int     `json:"y"`
}

// Plan is the API form of a caption layout plan.
type Plan struct {
	Frame                Frame     `json:"frame"`
	TotalDurationSeconds float64   `json:"totalDurationSeconds"`
	IntervalSeconds      float64   `json:"intervalSeconds"`
	OverrunSeconds       float64   `json:"overrunSeconds"`
	Title                Title     `json:"title"`
	Captions             []Caption `json:"captions"`
}

// ErrorResponse is returned for every non-2xx response.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// FieldError names a request field that failed validation.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}
