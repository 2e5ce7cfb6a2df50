package services

import (
	"errors"
	"fmt"
	"strings"

	"storyreel/internal/store"
)

// Failure classes. Stage errors wrap exactly one of these so the run ledger
// can tell operator problems from flaky ones.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap tags err with a failure class and a "stage: op: detail" prefix. Blank
// parts are skipped and a nil class counts as transient. The result matches
// both class and err under errors.Is.
func Wrap(class error, stage, op, detail string, err error) error {
	if class == nil {
		class = ErrTransient
	}
	var parts []string
	for _, part := range []string{stage, op, detail} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	where := strings.Join(parts, ": ")
	if where == "" {
		where = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", class, where)
	}
	return fmt.Errorf("%w: %s: %w", class, where, err)
}

// FailureStatus picks the ledger status for a failed run. Bad input, missing
// configuration and empty sources need a person; the rest may clear on rerun.
func FailureStatus(err error) store.RunStatus {
	for _, class := range []error{ErrValidation, ErrConfiguration, ErrNotFound} {
		if errors.Is(err, class) {
			return store.RunStatusReview
		}
	}
	return store.RunStatusFailed
}

// IsRetryable reports whether rerunning is likely to help.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}
