package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// NarrationSystemPrompt frames the model as a narrator.
	NarrationSystemPrompt = "You are a professional storyteller."

	narrationInstruction = "Rewrite this Reddit story to make it engaging, suspenseful, and suitable for narration. " +
		"Reply with the narration text only, as plain prose without headings, lists, or stage directions:"

	// DefaultMaxInputWords bounds how much of the source story is sent to the model.
	DefaultMaxInputWords = 500

	narrationTemperature = 0.7
)

// RewriteStory asks the model to retell story as narration. Only the first
// maxWords words of story are sent; maxWords <= 0 uses DefaultMaxInputWords.
func (c *Client) RewriteStory(ctx context.Context, story string, maxWords int) (string, error) {
	story = TruncateWords(story, maxWords)
	if story == "" {
		return "", errors.New("llm rewrite: story text required")
	}
	prompt := narrationInstruction + "\n\n" + story
	content, err := c.Complete(ctx, NarrationSystemPrompt, prompt, narrationTemperature)
	if err != nil {
		return "", fmt.Errorf("llm rewrite: %w", err)
	}
	narration := cleanNarration(content)
	if narration == "" {
		return "", errors.New("llm rewrite: model returned no narration")
	}
	return narration, nil
}

// TruncateWords keeps the first maxWords whitespace-separated words of text.
// Whitespace inside the kept prefix is preserved.
func TruncateWords(text string, maxWords int) string {
	text = strings.TrimSpace(text)
	if maxWords <= 0 {
		maxWords = DefaultMaxInputWords
	}
	count := 0
	inWord := false
	for i, r := range text {
		space := r == ' ' || r == '\n' || r == '\t' || r == '\r'
		if !space && !inWord {
			if count == maxWords {
				return strings.TrimSpace(text[:i])
			}
			count++
		}
		inWord = !space
	}
	return text
}

func cleanNarration(content string) string {
	text := strings.TrimSpace(stripCodeFence(content))
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}

// stripCodeFence removes a surrounding markdown fence and its language tag.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(body, '\n'); newline >= 0 && !strings.ContainsAny(strings.TrimSpace(body[:newline]), " \t") {
		body = body[newline+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
