package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyreel/internal/config"
)

const (
	userAgent       = "storyreel/0.1.0"
	defaultNtfyHost = "https://ntfy.sh/"
)

// RenderSummary describes a finished reel.
type RenderSummary struct {
	Title      string
	Subreddit  string
	OutputPath string
	Duration   time.Duration
	Captions   int
	Elapsed    time.Duration
}

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRenderCompleted(ctx context.Context, summary RenderSummary) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned. A bare
// topic name is published to ntfy.sh.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	endpoint := topic
	if !strings.Contains(topic, "://") {
		endpoint = defaultNtfyHost + strings.TrimPrefix(topic, "/")
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:        endpoint,
		client:          &http.Client{Timeout: timeout},
		renderCompleted: cfg.Notifications.RenderCompleted,
		errors:          cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint        string
	client          *http.Client
	renderCompleted bool
	errors          bool
}

func (n *ntfyService) NotifyRenderCompleted(ctx context.Context, summary RenderSummary) error {
	if !n.renderCompleted {
		return nil
	}
	title := strings.TrimSpace(summary.Title)
	if title == "" {
		title = "untitled story"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 Reel ready: %s", title)
	if sub := strings.TrimSpace(summary.Subreddit); sub != "" {
		fmt.Fprintf(&b, " (r/%s)", sub)
	}
	if summary.Duration > 0 {
		fmt.Fprintf(&b, "\nLength: %s, %d captions", summary.Duration.Round(time.Second), summary.Captions)
	}
	if summary.Elapsed > 0 {
		fmt.Fprintf(&b, "\nRendered in %s", summary.Elapsed.Round(time.Second))
	}
	if path := strings.TrimSpace(summary.OutputPath); path != "" {
		fmt.Fprintf(&b, "\nFile: %s", path)
	}
	return n.send(ctx, payload{
		title:    "storyreel - Reel Ready",
		message:  b.String(),
		tags:     []string{"storyreel", "render", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "storyreel - Error",
		message:  builder.String(),
		tags:     []string{"storyreel", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "storyreel - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"storyreel", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRenderCompleted(context.Context, RenderSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
