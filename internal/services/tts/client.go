package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storyreel/internal/services/httpretry"
)

const (
	defaultBaseURL       = "https://api.openai.com/v1/audio/speech"
	defaultModel         = "tts-1"
	defaultVoice         = "onyx"
	defaultHTTPTimeout   = 120 * time.Second
	defaultRetryAttempts = 4
	defaultRetryBase     = time.Second
	defaultRetryMax      = 10 * time.Second

	// MaxChunkChars is the longest input accepted by a single speech request.
	MaxChunkChars = 4000
)

// Config captures the speech endpoint settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Voice          string
	Speed          float64
	TimeoutSeconds int
}

// Client calls an OpenAI compatible /audio/speech endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the retry count and backoff bounds.
func WithRetry(attempts int, base, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.policy.Attempts = attempts
		c.policy.BaseDelay = base
		c.policy.MaxDelay = maxDelay
	}
}

// NewClient constructs a speech client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model = strings.TrimSpace(cfg.Model); cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Voice = strings.TrimSpace(cfg.Voice); cfg.Voice == "" {
		cfg.Voice = defaultVoice
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		policy: httpretry.Policy{
			Attempts:  defaultRetryAttempts,
			BaseDelay: defaultRetryBase,
			MaxDelay:  defaultRetryMax,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Synthesize renders text as MP3 speech at dest. Long text is split into
// sentence-aligned chunks whose audio is concatenated in order. dest is
// written atomically.
func (c *Client) Synthesize(ctx context.Context, text, dest string) error {
	if c.cfg.APIKey == "" {
		return errors.New("tts: api key required")
	}
	chunks := SplitText(text, MaxChunkChars)
	if len(chunks) == 0 {
		return errors.New("tts: text required")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("tts: create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".speech-*.mp3")
	if err != nil {
		return fmt.Errorf("tts: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	for i, chunk := range chunks {
		audio, err := httpretry.Do(ctx, c.policy, func(ctx context.Context) ([]byte, error) {
			return c.speakOnce(ctx, chunk)
		})
		if err != nil {
			_ = tmp.Close()
			return fmt.Errorf("tts: chunk %d of %d: %w", i+1, len(chunks), err)
		}
		if _, err := tmp.Write(audio); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("tts: write audio: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tts: close audio: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("tts: finalize audio: %w", err)
	}
	return nil
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed,omitempty"`
	ResponseFormat string  `json:"response_format"`
}

func (c *Client) speakOnce(ctx context.Context, chunk string) ([]byte, error) {
	encoded, err := json.Marshal(speechRequest{
		Model:          c.cfg.Model,
		Input:          chunk,
		Voice:          c.cfg.Voice,
		Speed:          c.cfg.Speed,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("tts request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("tts request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, httpretry.NewStatusError("tts", resp, body)
	}
	if len(body) == 0 {
		return nil, httpretry.Temporary(errors.New("tts request: empty audio"))
	}
	return body, nil
}
