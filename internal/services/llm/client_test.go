package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storyreel/internal/services/httpretry"
)

func writeChoice(t *testing.T, w http.ResponseWriter, choice map[string]any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}}); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func messageChoice(content string) map[string]any {
	return map[string]any{"finish_reason": "stop", "message": map[string]any{"content": content}}
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestHealthCheckAcceptsOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "storyreel" {
			t.Errorf("unexpected title header %q", got)
		}
		writeChoice(t, w, messageChoice("Ok."))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "storyreel"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestHealthCheckFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			},
			want: "http 401",
		},
		{
			name: "unexpected reply",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeChoice(t, w, messageChoice("I cannot help with that"))
			},
			want: "unexpected reply",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(Config{APIKey: "key", BaseURL: server.URL}, WithRetry(1, 0, 0))
			err := client.HealthCheck(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.Complete(context.Background(), "", "hi", 0); err == nil || !strings.Contains(err.Error(), "api key") {
		t.Fatalf("expected api key error, got %v", err)
	}
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to require api key")
	}
}

func TestCompleteSendsMessages(t *testing.T) {
	tests := []struct {
		name     string
		system   string
		messages int
	}{
		{"with system prompt", "system", 2},
		{"user only", "  ", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req chatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if len(req.Messages) != tt.messages || req.Messages[len(req.Messages)-1].Role != "user" {
					t.Errorf("unexpected messages %+v", req.Messages)
				}
				if req.Temperature != 0.5 || req.Model != "demo-model" {
					t.Errorf("unexpected request %+v", req)
				}
				writeChoice(t, w, messageChoice("  once upon a time  "))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
			got, err := client.Complete(context.Background(), tt.system, "user", 0.5)
			if err != nil {
				t.Fatalf("Complete returned error: %v", err)
			}
			if got != "once upon a time" {
				t.Fatalf("unexpected content %q", got)
			}
		})
	}
}

func TestCompleteAcceptsAlternateReplyShapes(t *testing.T) {
	tests := []struct {
		name   string
		choice map[string]any
	}{
		{"delta", map[string]any{"delta": map[string]any{"content": "narration"}}},
		{"legacy text", map[string]any{"finish_reason": "stop", "text": "narration"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeChoice(t, w, tt.choice)
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
			got, err := client.Complete(context.Background(), "", "user", 0)
			if err != nil || got != "narration" {
				t.Fatalf("unexpected result %q (err=%v)", got, err)
			}
		})
	}
}

func TestCompleteRetriesEmptyContent(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeChoice(t, w, map[string]any{"finish_reason": "length", "message": map[string]any{"content": ""}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithRetry(3, 0, 0))
	_, err := client.Complete(context.Background(), "system", "user", 0)
	if err == nil || !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), `finish_reason="length"`) {
		t.Fatalf("expected empty-content error, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") || calls != 3 {
		t.Fatalf("expected 3 attempts, got %d (%v)", calls, err)
	}
}

func TestCompleteRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeChoice(t, w, messageChoice("narration"))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetry(5, 0, 10*time.Second),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
	)
	got, err := client.Complete(context.Background(), "system", "user", 0)
	if err != nil || got != "narration" {
		t.Fatalf("unexpected result %q (err=%v)", got, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithSleeper(noSleep))
	_, err := client.Complete(context.Background(), "", "user", 0)
	var statusErr *httpretry.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}
