package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRewriteStoryUsesStorytellerPrompt(t *testing.T) {
	var user string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Content != NarrationSystemPrompt {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		user = req.Messages[len(req.Messages)-1].Content
		writeChoice(t, w, messageChoice("\"It was a dark and stormy night.\""))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	got, err := client.RewriteStory(context.Background(), "one two three four five", 3)
	if err != nil {
		t.Fatalf("RewriteStory returned error: %v", err)
	}
	if got != "It was a dark and stormy night." {
		t.Fatalf("unexpected narration %q", got)
	}
	if !strings.HasPrefix(user, "Rewrite this Reddit story") {
		t.Fatalf("unexpected prompt %q", user)
	}
	if !strings.HasSuffix(user, "one two three") {
		t.Fatalf("story should be truncated to three words, prompt=%q", user)
	}
}

func TestRewriteStoryErrors(t *testing.T) {
	client := NewClient(Config{APIKey: "test", BaseURL: "http://127.0.0.1:1"})
	if _, err := client.RewriteStory(context.Background(), "   ", 0); err == nil {
		t.Fatal("expected error for empty story")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client = NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetry(2, 0, 0),
	)
	_, err := client.RewriteStory(context.Background(), "a story", 0)
	if err == nil || !strings.Contains(err.Error(), "llm rewrite") {
		t.Fatalf("expected wrapped rewrite error, got %v", err)
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"a b c", 5, "a b c"},
		{"a b c d", 2, "a b"},
		{"  a\n\nb   c ", 2, "a\n\nb"},
		{"", 3, ""},
		{strings.Repeat("w ", DefaultMaxInputWords+10), 0, strings.TrimSpace(strings.Repeat("w ", DefaultMaxInputWords))},
	}
	for _, tt := range tests {
		if got := TruncateWords(tt.in, tt.max); got != tt.want {
			t.Fatalf("TruncateWords(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"```\nfenced\n```", "fenced"},
		{"```text\nOnce upon a time.\n```", "Once upon a time."},
		{"```Once upon a time.```", "Once upon a time."},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
