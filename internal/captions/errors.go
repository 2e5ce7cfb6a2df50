package captions

import (
	"errors"
	"fmt"
)

// ErrInvalidDuration matches every *InvalidDurationError via errors.Is.
var ErrInvalidDuration = errors.New("invalid narration duration")

// InvalidDurationError reports a duration that cannot be divided into caption
// slots: zero, negative, NaN, or infinite.
type InvalidDurationError struct {
	Duration float64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid narration duration %v: must be a positive number of seconds", e.Duration)
}

// Is reports whether target is ErrInvalidDuration.
func (e *InvalidDurationError) Is(target error) bool {
	return target == ErrInvalidDuration
}
