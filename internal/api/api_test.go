package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storyreel/internal/api"
	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/store"
	"storyreel/internal/testsupport"
)

func newTestServer(t *testing.T, opts ...func(*config.Config)) (*httptest.Server, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	for _, opt := range opts {
		opt(cfg)
	}
	st := testsupport.MustOpenStore(t, cfg)
	srv := httptest.NewServer(api.NewServer(cfg, st, logging.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, st := newTestServer(t)
	if _, err := st.BeginRun(context.Background(), "run-1", "tifu", ""); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header")
	}
	health := decode[api.HealthResponse](t, resp)
	if health.Status != "ok" {
		t.Fatalf("status field = %q", health.Status)
	}
	if health.RunCounts["running"] != 1 {
		t.Fatalf("run counts = %v", health.RunCounts)
	}
}

func TestPlanReturnsLayout(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"narration":"I found a letter in the attic. It was addressed to me, from me.","durationSeconds":6,"title":"The Letter"}`
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/plan", body, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	plan := decode[api.Plan](t, resp)
	if plan.Frame.Width != 1080 || plan.Frame.Height != 1920 {
		t.Fatalf("frame = %+v", plan.Frame)
	}
	if plan.Title.Text != "The Letter" || plan.Title.DurationSeconds != 6 {
		t.Fatalf("title = %+v", plan.Title)
	}
	if len(plan.Captions) == 0 {
		t.Fatal("expected captions")
	}
	first := plan.Captions[0]
	if first.StartSeconds != 0 || first.Position != "band_a" {
		t.Fatalf("first caption = %+v", first)
	}
	if first.EndSeconds != first.StartSeconds+first.DurationSeconds {
		t.Fatalf("endSeconds mismatch: %+v", first)
	}
}

func TestPlanSRTFormat(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"narration":"One two three four five.","durationSeconds":3}`
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/plan?format=srt", body, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-subrip") {
		t.Fatalf("content type = %q", ct)
	}
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "1\n00:00:00,000 --> ") {
		t.Fatalf("unexpected srt body %q", buf.String())
	}
}

func TestPlanRejectsInvalidDuration(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/plan", `{"narration":"hello there","durationSeconds":0}`, "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	payload := decode[api.ErrorResponse](t, resp)
	if !strings.Contains(payload.Error, "duration") {
		t.Fatalf("error = %q", payload.Error)
	}
}

func TestPlanValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing duration", body: `{"narration":"hi"}`, field: "durationSeconds"},
		{name: "tiny frame", body: `{"durationSeconds":3,"width":4}`, field: "width"},
		{name: "bad min words", body: `{"durationSeconds":3,"options":{"minWords":500}}`, field: "minWords"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/plan", tt.body, "")
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			payload := decode[api.ErrorResponse](t, resp)
			if len(payload.Fields) != 1 || payload.Fields[0].Field != tt.field {
				t.Fatalf("fields = %+v, want %s", payload.Fields, tt.field)
			}
		})
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/plan", `{"durationSeconds":3,"bogus":true}`, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want 400", resp.StatusCode)
	}
}

func TestRunsEndpoints(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	if _, err := st.BeginRun(ctx, "run-a", "nosleep", "/tmp/run-a.log"); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := st.FinishRun(ctx, "run-a", store.RunResult{
		Status:          store.RunStatusSucceeded,
		Title:           "The Letter",
		OutputPath:      "/out/the-letter.mp4",
		CaptionCount:    4,
		DurationSeconds: 12.5,
	}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/runs", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	list := decode[api.RunListResponse](t, resp)
	if len(list.Runs) != 1 || list.Runs[0].ID != "run-a" || list.Runs[0].Status != "succeeded" {
		t.Fatalf("runs = %+v", list.Runs)
	}
	if list.Runs[0].FinishedAt == "" {
		t.Fatal("expected finishedAt")
	}
	if _, err := time.Parse(time.RFC3339, list.Runs[0].StartedAt); err != nil {
		t.Fatalf("startedAt not RFC3339: %v", err)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/runs/run-a", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if got := decode[api.RunResponse](t, resp); got.Run.CaptionCount != 4 {
		t.Fatalf("run = %+v", got.Run)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/runs/missing", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/runs?limit=abc", "", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", resp.StatusCode)
	}
}

func TestCacheListing(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	key := store.Key{Stage: store.StageNarration, Digest: store.Digest("story", "model")}
	if _, err := st.PutBytes(ctx, key, []byte("narration"), ".txt"); err != nil {
		t.Fatalf("PutBytes: %v", err)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/cache?stage=narration", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	list := decode[api.CacheListResponse](t, resp)
	if len(list.Entries) != 1 || list.Entries[0].Stage != "narration" || list.Entries[0].SizeBytes != int64(len("narration")) {
		t.Fatalf("entries = %+v", list.Entries)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cache?stage=voiceover", "", "")
	if got := decode[api.CacheListResponse](t, resp); len(got.Entries) != 0 {
		t.Fatalf("voiceover entries = %+v", got.Entries)
	}
}

func TestBearerToken(t *testing.T) {
	srv, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "s3cret"
	})

	if resp := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200 without token", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodGet, srv.URL+"/api/runs", "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodGet, srv.URL+"/api/runs", "", "wrong"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for wrong token", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodGet, srv.URL+"/api/runs", "", "s3cret"); resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 with token", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/plan", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	server := api.NewServer(cfg, st, logging.NewNop())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
