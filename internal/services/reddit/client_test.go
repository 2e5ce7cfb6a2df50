package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"storyreel/internal/services/httpretry"
)

func listingHandler(t *testing.T, posts ...map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		children := make([]any, 0, len(posts))
		for _, p := range posts {
			children = append(children, map[string]any{"kind": "t3", "data": p})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"children": children}})
	}
}

func selfPost(id, title, body string) map[string]any {
	return map[string]any{
		"id": id, "subreddit": "AmItheAsshole", "title": title, "selftext": body,
		"author": "throwaway", "permalink": "/r/AmItheAsshole/comments/" + id + "/",
		"score": 1200, "created_utc": 1767225600.0, "is_self": true,
	}
}

func TestTopStoryPublicListingSkipsIneligiblePosts(t *testing.T) {
	sticky := selfPost("a", "Rules", "Read them")
	sticky["stickied"] = true
	nsfw := selfPost("b", "Spicy", "content")
	nsfw["over_18"] = true
	removed := selfPost("c", "Gone", "[removed]")
	link := selfPost("d", "Link", "x")
	link["is_self"] = false
	good := selfPost("e", "AITA for skipping the wedding?", "  It started last spring.  ")

	var gotPath, gotQuery, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAgent = r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")
		listingHandler(t, sticky, nsfw, removed, link, good)(w, r)
	}))
	defer server.Close()

	client, err := New(Config{PublicBaseURL: server.URL, UserAgent: "test-agent", TimeFilter: "week", Candidates: 25})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	story, err := client.TopStory(context.Background(), "r/AmItheAsshole")
	if err != nil {
		t.Fatalf("TopStory returned error: %v", err)
	}
	if gotPath != "/r/AmItheAsshole/top.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "t=week") || !strings.Contains(gotQuery, "limit=25") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotAgent != "test-agent" {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
	if story.ID != "e" || story.Body != "It started last spring." {
		t.Fatalf("unexpected story %+v", story)
	}
	if story.Text() != "AITA for skipping the wedding?\nIt started last spring." {
		t.Fatalf("unexpected story text %q", story.Text())
	}
	if story.Permalink != "https://www.reddit.com/r/AmItheAsshole/comments/e/" {
		t.Fatalf("unexpected permalink %q", story.Permalink)
	}
	if story.CreatedUTC.Year() != 2026 {
		t.Fatalf("unexpected created time %v", story.CreatedUTC)
	}
}

func TestTopStoryAllowsNSFWWhenConfigured(t *testing.T) {
	nsfw := selfPost("b", "Spicy", "content")
	nsfw["over_18"] = true
	server := httptest.NewServer(listingHandler(t, nsfw))
	defer server.Close()

	client, err := New(Config{PublicBaseURL: server.URL, AllowNSFW: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	story, err := client.TopStory(context.Background(), "tifu")
	if err != nil || story.ID != "b" {
		t.Fatalf("expected nsfw story, got %+v err=%v", story, err)
	}
}

func TestTopStoryNoEligiblePost(t *testing.T) {
	server := httptest.NewServer(listingHandler(t))
	defer server.Close()

	client, err := New(Config{PublicBaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.TopStory(context.Background(), "AmItheAsshole")
	if !errors.Is(err, ErrNoStory) {
		t.Fatalf("expected ErrNoStory, got %v", err)
	}
}

func TestTopStoryOAuthCachesToken(t *testing.T) {
	var tokenCalls, listingCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			t.Errorf("unexpected basic auth %q %q %v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("unexpected grant form %v (err=%v)", r.PostForm, err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.HandleFunc("/r/AmItheAsshole/top", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&listingCalls, 1)
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization %q", got)
		}
		listingHandler(t, selfPost("x", "Title", "Body"))(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := New(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		OAuthBaseURL: server.URL,
		TokenURL:     server.URL + "/api/v1/access_token",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := client.TopStory(context.Background(), "AmItheAsshole"); err != nil {
			t.Fatalf("TopStory returned error: %v", err)
		}
	}
	if tokenCalls != 1 || listingCalls != 2 {
		t.Fatalf("expected 1 token call and 2 listing calls, got %d/%d", tokenCalls, listingCalls)
	}
}

func TestTopStoryStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	client, err := New(Config{PublicBaseURL: server.URL})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.TopStory(context.Background(), "AmItheAsshole")
	var statusErr *httpretry.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if !IsRetriable(err) {
		t.Fatal("429 should be retriable")
	}
}

func TestNewRejectsHalfCredentials(t *testing.T) {
	if _, err := New(Config{ClientID: "id"}); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestTopStoriesRequiresSubreddit(t *testing.T) {
	client, err := New(Config{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.TopStories(context.Background(), " r/ "); err == nil {
		t.Fatal("expected error for blank subreddit")
	}
}
