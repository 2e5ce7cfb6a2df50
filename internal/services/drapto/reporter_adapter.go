package drapto

import (
	"fmt"
	"time"

	draptolib "github.com/five82/drapto"
)

// progressReporter adapts the Drapto Reporter interface to the ProgressUpdate
// callback used by the pipeline.
type progressReporter struct {
	callback func(ProgressUpdate)
	now      func() time.Time
}

func newProgressReporter(callback func(ProgressUpdate)) *progressReporter {
	return &progressReporter{callback: callback, now: time.Now}
}

func (r *progressReporter) emit(update ProgressUpdate) {
	update.Timestamp = r.now()
	r.callback(update)
}

func (r *progressReporter) Hardware(s draptolib.HardwareSummary) {
	r.emit(ProgressUpdate{Type: EventTypeHardware, Message: fmt.Sprint(s.Hostname)})
}

func (r *progressReporter) Initialization(s draptolib.InitializationSummary) {
	r.emit(ProgressUpdate{
		Type:       EventTypeInitialization,
		Message:    fmt.Sprint(s.Resolution),
		OutputPath: fmt.Sprint(s.OutputFile),
	})
}

func (r *progressReporter) StageProgress(s draptolib.StageProgress) {
	var eta time.Duration
	if s.ETA != nil {
		eta = *s.ETA
	}
	r.emit(ProgressUpdate{
		Type:    EventTypeStageProgress,
		Percent: float64(s.Percent),
		Stage:   s.Stage,
		Message: s.Message,
		ETA:     eta,
	})
}

func (r *progressReporter) CropResult(s draptolib.CropSummary) {
	r.emit(ProgressUpdate{Type: EventTypeCropResult, Message: fmt.Sprint(s.Message)})
}

func (r *progressReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.emit(ProgressUpdate{
		Type:    EventTypeEncodingConfig,
		Message: fmt.Sprintf("%v preset %v", s.Encoder, s.Preset),
	})
}

func (r *progressReporter) EncodingStarted(totalFrames uint64) {
	r.emit(ProgressUpdate{
		Type:    EventTypeEncodingStarted,
		Stage:   "encoding",
		Message: fmt.Sprintf("%d frames", totalFrames),
	})
}

func (r *progressReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.emit(ProgressUpdate{
		Type:    EventTypeEncodingProgress,
		Percent: float64(s.Percent),
		Stage:   "encoding",
		Speed:   float64(s.Speed),
		ETA:     s.ETA,
	})
}

func (r *progressReporter) ValidationComplete(s draptolib.ValidationSummary) {
	r.emit(ProgressUpdate{Type: EventTypeValidation, Passed: s.Passed})
}

func (r *progressReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.emit(ProgressUpdate{
		Type:         EventTypeEncodingComplete,
		Percent:      100,
		OriginalSize: int64(s.OriginalSize),
		EncodedSize:  int64(s.EncodedSize),
		OutputPath:   s.OutputPath,
	})
}

func (r *progressReporter) Warning(message string) {
	r.emit(ProgressUpdate{Type: EventTypeWarning, Message: message})
}

func (r *progressReporter) Error(e draptolib.ReporterError) {
	r.emit(ProgressUpdate{Type: EventTypeError, Message: fmt.Sprintf("%v: %v", e.Title, e.Message)})
}

func (r *progressReporter) OperationComplete(message string) {
	r.emit(ProgressUpdate{Type: EventTypeOperationComplete, Message: message})
}

func (r *progressReporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.emit(ProgressUpdate{Type: EventTypeBatchStarted, Message: fmt.Sprintf("%d files", s.TotalFiles)})
}

func (r *progressReporter) FileProgress(s draptolib.FileProgressContext) {
	r.emit(ProgressUpdate{
		Type:    EventTypeFileProgress,
		Message: fmt.Sprintf("file %d of %d", s.CurrentFile, s.TotalFiles),
	})
}

func (r *progressReporter) BatchComplete(s draptolib.BatchSummary) {
	r.emit(ProgressUpdate{
		Type:    EventTypeBatchComplete,
		Message: fmt.Sprintf("%d of %d succeeded", s.SuccessfulCount, s.TotalFiles),
	})
}

var _ draptolib.Reporter = (*progressReporter)(nil)
