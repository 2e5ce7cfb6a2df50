package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.pexels.com/videos"
	defaultHTTPTimeout = 60 * time.Second
	defaultPerPage     = 5
)

// ErrNoFootage is returned when a search yields no downloadable video file.
var ErrNoFootage = errors.New("pexels: no matching footage")

// Config describes the Pexels client configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	PerPage    int
	HTTPClient *http.Client
}

// Video is a search hit with its renditions.
type Video struct {
	ID       int         `json:"id"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	Duration int         `json:"duration"`
	URL      string      `json:"url"`
	Files    []VideoFile `json:"video_files"`
}

// VideoFile is a single rendition of a Video.
type VideoFile struct {
	ID       int    `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// Client wraps the Pexels video API.
type Client struct {
	apiKey  string
	baseURL string
	perPage int
	http    *http.Client
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("pexels: api key is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{apiKey: apiKey, baseURL: base, perPage: perPage, http: client}, nil
}

// Search returns videos matching query. orientation may be empty.
func (c *Client) Search(ctx context.Context, query, orientation string) ([]Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("pexels: query required")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(c.perPage))
	if orientation = strings.TrimSpace(orientation); orientation != "" {
		params.Set("orientation", orientation)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pexels: build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels: search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("pexels: search: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		Videos []Video `json:"videos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("pexels: decode search: %w", err)
	}
	return payload.Videos, nil
}

// PickFile selects the MP4 rendition of v best suited to a frame of
// targetHeight: the shortest one at least that tall, else the tallest.
func PickFile(v Video, targetHeight int) (VideoFile, bool) {
	var best, tallest VideoFile
	var haveBest, haveTallest bool
	for _, f := range v.Files {
		if f.Link == "" || (f.FileType != "" && f.FileType != "video/mp4") {
			continue
		}
		if !haveTallest || f.Height > tallest.Height {
			tallest, haveTallest = f, true
		}
		if f.Height >= targetHeight && (!haveBest || f.Height < best.Height) {
			best, haveBest = f, true
		}
	}
	if haveBest {
		return best, true
	}
	return tallest, haveTallest
}

// FindFootage searches query and returns the first video with a usable
// rendition together with that rendition.
func (c *Client) FindFootage(ctx context.Context, query, orientation string, targetHeight int) (Video, VideoFile, error) {
	videos, err := c.Search(ctx, query, orientation)
	if err != nil {
		return Video{}, VideoFile{}, err
	}
	for _, v := range videos {
		if file, ok := PickFile(v, targetHeight); ok {
			return v, file, nil
		}
	}
	return Video{}, VideoFile{}, fmt.Errorf("%w for %q", ErrNoFootage, query)
}

// Download streams file to dest, writing through a temp file.
func (c *Client) Download(ctx context.Context, file VideoFile, dest string) error {
	if strings.TrimSpace(file.Link) == "" {
		return errors.New("pexels: download link required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link, nil)
	if err != nil {
		return fmt.Errorf("pexels: build download: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pexels: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pexels: download: http %d", resp.StatusCode)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("pexels: create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".footage-*.mp4")
	if err != nil {
		return fmt.Errorf("pexels: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("pexels: write footage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("pexels: close footage: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("pexels: finalize footage: %w", err)
	}
	return nil
}
