package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"storyreel/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\nd\ne\n")

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 2, want: []string{"d", "e"}},
		{limit: 3, want: []string{"c", "d", "e"}},
		{limit: 10, want: []string{"a", "b", "c", "d", "e"}},
		{limit: 0, want: []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		lines, offset, err := logs.Tail(path, tt.limit)
		if err != nil {
			t.Fatalf("Tail(%d): %v", tt.limit, err)
		}
		if !slices.Equal(lines, tt.want) {
			t.Fatalf("Tail(%d) = %#v, want %#v", tt.limit, lines, tt.want)
		}
		if offset != int64(len("a\nb\nc\nd\ne\n")) {
			t.Fatalf("offset = %d", offset)
		}
	}
}

func TestTailMissingFile(t *testing.T) {
	lines, offset, err := logs.Tail(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("Tail missing = %v, %d, %v", lines, offset, err)
	}
}

func TestReadFromSkipsPartialLine(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthr")

	lines, offset, err := logs.ReadFrom(path, 0)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if !slices.Equal(lines, []string{"one", "two"}) || offset != 8 {
		t.Fatalf("ReadFrom = %#v @ %d", lines, offset)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString("ee\n")
	_ = f.Close()

	lines, _, err = logs.ReadFrom(path, offset)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if !slices.Equal(lines, []string{"three"}) {
		t.Fatalf("ReadFrom after append = %#v", lines)
	}

	lines, _, err = logs.ReadFrom(path, 1<<20)
	if err != nil || len(lines) != 3 {
		t.Fatalf("ReadFrom past end = %#v, %v", lines, err)
	}
}

func TestFollowDeliversAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Tail(path, 1)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, line)
			if len(got) == 2 {
				cancel()
			}
			return nil
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString("next\nlast\n")
	_ = f.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return")
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(got, []string{"next", "last"}) {
		t.Fatalf("followed = %#v", got)
	}
}
