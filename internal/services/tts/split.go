package tts

import (
	"strings"
	"unicode/utf8"
)

// SplitText breaks text into chunks of at most limit bytes, preferring
// sentence ends, then word boundaries. Whitespace runs collapse to a single
// space. A single word longer than limit is cut at a rune boundary.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxChunkChars
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	lastSentenceEnd := 0

	flushAt := func(n int) {
		s := current.String()
		head := strings.TrimSpace(s[:n])
		tail := strings.TrimSpace(s[n:])
		if head != "" {
			chunks = append(chunks, head)
		}
		current.Reset()
		current.WriteString(tail)
		lastSentenceEnd = 0
	}

	for _, word := range words {
		for len(word) > limit {
			if current.Len() > 0 {
				flushAt(current.Len())
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(word[cut]) {
				cut--
			}
			if cut == 0 {
				_, cut = utf8.DecodeRuneInString(word)
			}
			chunks = append(chunks, word[:cut])
			word = word[cut:]
		}
		extra := len(word)
		if current.Len() > 0 {
			extra++
		}
		if current.Len()+extra > limit {
			if lastSentenceEnd > 0 {
				flushAt(lastSentenceEnd)
			} else {
				flushAt(current.Len())
			}
			if current.Len() > 0 && current.Len()+1+len(word) > limit {
				flushAt(current.Len())
			}
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
		if endsSentence(word) {
			lastSentenceEnd = current.Len()
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, "\"')]}”’")
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	}
	return strings.HasSuffix(word, "…")
}
