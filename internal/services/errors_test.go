package services_test

import (
	"errors"
	"strings"
	"testing"

	"storyreel/internal/services"
	"storyreel/internal/store"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "composite failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	want := "external tool error: render: ffmpeg: composite failed: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapDefaults(t *testing.T) {
	err := services.Wrap(nil, " ", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("nil marker should default to transient, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err)
	}
}

func TestFailureStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want store.RunStatus
	}{
		{"validation", services.Wrap(services.ErrValidation, "plan", "captions", "bad duration", nil), store.RunStatusReview},
		{"configuration", services.Wrap(services.ErrConfiguration, "voiceover", "tts", "missing key", nil), store.RunStatusReview},
		{"not found", services.Wrap(services.ErrNotFound, "story", "reddit", "no posts", nil), store.RunStatusReview},
		{"transient", services.Wrap(services.ErrTransient, "background", "download", "reset", errors.New("io")), store.RunStatusFailed},
		{"nil", nil, store.RunStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.FailureStatus(tt.err); got != tt.want {
				t.Fatalf("FailureStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !services.IsRetryable(services.Wrap(services.ErrTimeout, "narration", "llm", "deadline", nil)) {
		t.Fatal("timeouts should be retryable")
	}
	if services.IsRetryable(services.Wrap(services.ErrValidation, "plan", "", "", nil)) {
		t.Fatal("validation errors are not retryable")
	}
}
