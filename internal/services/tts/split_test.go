package tts

import (
	"strings"
	"testing"
)

func TestSplitTextShortInputIsSingleChunk(t *testing.T) {
	got := SplitText("  Hello   there.\nGeneral Kenobi! ", 100)
	if len(got) != 1 || got[0] != "Hello there. General Kenobi!" {
		t.Fatalf("unexpected chunks %q", got)
	}
	if SplitText(" \n ", 10) != nil {
		t.Fatal("blank input should produce no chunks")
	}
}

func TestSplitTextPrefersSentenceBoundaries(t *testing.T) {
	got := SplitText("One two three. Four five six seven.", 24)
	want := []string{"One two three.", "Four five six seven."}
	if len(got) != len(want) {
		t.Fatalf("unexpected chunks %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitTextFallsBackToWords(t *testing.T) {
	got := SplitText("alpha beta gamma delta", 11)
	want := []string{"alpha beta", "gamma delta"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected chunks %q", got)
	}
}

func TestSplitTextRespectsLimitAndKeepsWords(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 600; i++ {
		b.WriteString("The quick brown fox jumps. ")
	}
	text := b.String()
	chunks := SplitText(text, MaxChunkChars)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > MaxChunkChars {
			t.Fatalf("chunk %d exceeds limit: %d", i, len(c))
		}
		if !strings.HasSuffix(c, ".") {
			t.Fatalf("chunk %d should end on a sentence: %q", i, c[len(c)-20:])
		}
	}
	if strings.Join(chunks, " ") != strings.Join(strings.Fields(text), " ") {
		t.Fatal("chunks must reassemble into the original words")
	}
}

func TestSplitTextCutsOversizedWord(t *testing.T) {
	got := SplitText("ab ééééé cd", 4)
	for _, c := range got {
		if len(c) > 4 {
			t.Fatalf("chunk %q exceeds limit", c)
		}
	}
	if strings.Join(got, "") != "abééééécd" {
		t.Fatalf("unexpected chunks %q", got)
	}
}
