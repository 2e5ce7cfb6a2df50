package captions

import (
	"strings"
	"unicode/utf8"
)

// closers are trailing characters skipped when looking for the punctuation
// that ends a word, so `done."` and `(really!)` still end a sentence.
const closers = "\"')]}»”’"

// Segment splits narration into display phrases.
//
// Words are accumulated in order. A phrase closes on a word ending in ".",
// "!" or "?" once it holds at least opts.MinWords words, or on a word ending in
// ",", ";" or ":" once it holds at least opts.MaxWords words. Whatever remains
// at the end becomes the final phrase, however short, so no word is dropped.
// Blank input yields no phrases.
func Segment(text string, opts Options) []string {
	opts = opts.withDefaults()
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var (
		phrases []string
		pending []string
	)
	for _, word := range words {
		pending = append(pending, word)
		if shouldClose(word, len(pending), opts) {
			phrases = append(phrases, strings.Join(pending, " "))
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		phrases = append(phrases, strings.Join(pending, " "))
	}
	return phrases
}

func shouldClose(word string, count int, opts Options) bool {
	last, ok := endingRune(word)
	if !ok {
		return false
	}
	switch last {
	case '.', '!', '?', '…':
		return count >= opts.MinWords
	case ',', ';', ':':
		return opts.MaxWords > 0 && count >= opts.MaxWords
	}
	return false
}

func endingRune(word string) (rune, bool) {
	trimmed := strings.TrimRight(word, closers)
	if trimmed == "" {
		return 0, false
	}
	r, _ := utf8.DecodeLastRuneInString(trimmed)
	return r, r != utf8.RuneError
}
