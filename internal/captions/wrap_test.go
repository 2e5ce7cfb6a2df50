package captions

import (
	"reflect"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"one two three", 7, []string{"one two", "three"}},
		{"one two three", 100, []string{"one two three"}},
		{"supercalifragilistic is long", 5, []string{"supercalifragilistic", "is", "long"}},
		{"日本 語", 4, []string{"日本", "語"}},
		{"a b", 0, []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := Wrap(tt.text, tt.width)
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("Wrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestLineWidth(t *testing.T) {
	if got := LineWidth(1080, 50); got != 34 {
		t.Fatalf("LineWidth(1080, 50) = %d, want 34", got)
	}
	if got := LineWidth(100, 50); got != 1 {
		t.Fatalf("LineWidth(100, 50) = %d, want 1", got)
	}
	if got := LineWidth(1080, 0); got != 34 {
		t.Fatalf("LineWidth with default font = %d, want 34", got)
	}
}
