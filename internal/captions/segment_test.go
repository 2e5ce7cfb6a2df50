package captions

import (
	"reflect"
	"strings"
	"testing"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		text string
		opts Options
		want []string
	}{
		{
			name: "empty",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: "  \n\t ",
			want: nil,
		},
		{
			name: "no punctuation flushes everything",
			text: "word word word",
			want: []string{"word word word"},
		},
		{
			name: "short sentence joins the next",
			text: "Hello there. This is a test of the caption system. It should split into phrases.",
			want: []string{
				"Hello there. This is a test of the caption system.",
				"It should split into phrases.",
			},
		},
		{
			name: "lower minimum splits every sentence",
			text: "Hello there. This is a test of the caption system. It should split into phrases.",
			opts: Options{MinWords: 2},
			want: []string{
				"Hello there.",
				"This is a test of the caption system.",
				"It should split into phrases.",
			},
		},
		{
			name: "trailing fragment kept",
			text: "I could not believe what I saw. and then",
			want: []string{"I could not believe what I saw.", "and then"},
		},
		{
			name: "question and exclamation terminate",
			text: "Can you believe it happened again? I was shocked beyond words!",
			want: []string{"Can you believe it happened again?", "I was shocked beyond words!"},
		},
		{
			name: "closing quotes are skipped",
			text: `She said "I am never coming back." Then she left the room.`,
			want: []string{`She said "I am never coming back."`, "Then she left the room."},
		},
		{
			name: "clause punctuation splits long phrases",
			text: "one two three four five six seven eight nine ten, eleven twelve",
			want: []string{"one two three four five six seven eight nine ten,", "eleven twelve"},
		},
		{
			name: "clause punctuation ignored below the limit",
			text: "one two, three four five.",
			want: []string{"one two, three four five."},
		},
		{
			name: "negative max words disables clause splits",
			text: "one two three four five six seven eight nine ten, eleven twelve",
			opts: Options{MaxWords: -1},
			want: []string{"one two three four five six seven eight nine ten, eleven twelve"},
		},
		{
			name: "collapses interior whitespace",
			text: "It   was\na dark\tand stormy night.",
			want: []string{"It was a dark and stormy night."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.text, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Segment(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSegmentNeverDropsWords(t *testing.T) {
	texts := []string{
		"A. B. C. D. E. F.",
		"This is it! Or is it? Nobody knows... maybe.",
		strings.Repeat("lorem ipsum dolor, sit amet. ", 40),
	}
	for _, text := range texts {
		phrases := Segment(text, Options{})
		joined := strings.Join(phrases, " ")
		if joined != strings.Join(strings.Fields(text), " ") {
			t.Fatalf("words lost or reordered:\n got %q\nwant %q", joined, strings.Join(strings.Fields(text), " "))
		}
		for _, p := range phrases {
			if strings.TrimSpace(p) == "" {
				t.Fatalf("empty phrase produced for %q", text)
			}
		}
	}
}
