package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"storyreel/internal/services/httpretry"
)

const (
	defaultPublicBaseURL = "https://www.reddit.com"
	defaultOAuthBaseURL  = "https://oauth.reddit.com"
	defaultTokenURL      = "https://www.reddit.com/api/v1/access_token"
	defaultUserAgent     = "storyreel/dev"
	defaultHTTPTimeout   = 15 * time.Second
	defaultCandidates    = 10
	maxCandidates        = 100
	tokenExpirySkew      = 30 * time.Second
)

// ErrNoStory is returned when a listing holds no post worth narrating.
var ErrNoStory = errors.New("reddit: no eligible story")

// Config describes the Reddit client configuration. Leaving ClientID empty
// selects the public JSON listing instead of the OAuth API.
type Config struct {
	ClientID          string
	ClientSecret      string
	UserAgent         string
	TimeFilter        string
	Candidates        int
	AllowNSFW         bool
	RequestsPerSecond float64

	PublicBaseURL string
	OAuthBaseURL  string
	TokenURL      string
	HTTPClient    *http.Client
}

// Story is a self post selected for narration.
type Story struct {
	ID         string    `json:"id"`
	Subreddit  string    `json:"subreddit"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Author     string    `json:"author"`
	Permalink  string    `json:"permalink"`
	Score      int       `json:"score"`
	CreatedUTC time.Time `json:"created_utc"`
}

// Text returns the story as it is narrated: the title, a newline, then the body.
func (s Story) Text() string {
	return strings.TrimSpace(strings.TrimSpace(s.Title) + "\n" + strings.TrimSpace(s.Body))
}

// Client fetches top posts from a subreddit.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	if (cfg.ClientID == "") != (cfg.ClientSecret == "") {
		return nil, errors.New("reddit: client id and secret must be set together")
	}
	cfg.UserAgent = strings.TrimSpace(cfg.UserAgent)
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	cfg.TimeFilter = strings.TrimSpace(cfg.TimeFilter)
	if cfg.TimeFilter == "" {
		cfg.TimeFilter = "day"
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = defaultCandidates
	}
	if cfg.Candidates > maxCandidates {
		cfg.Candidates = maxCandidates
	}
	cfg.PublicBaseURL = strings.TrimRight(firstNonEmpty(cfg.PublicBaseURL, defaultPublicBaseURL), "/")
	cfg.OAuthBaseURL = strings.TrimRight(firstNonEmpty(cfg.OAuthBaseURL, defaultOAuthBaseURL), "/")
	cfg.TokenURL = firstNonEmpty(cfg.TokenURL, defaultTokenURL)

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		cfg:     cfg,
		http:    client,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}, nil
}

// Authenticated reports whether the client uses OAuth credentials.
func (c *Client) Authenticated() bool {
	return c.cfg.ClientID != ""
}

// TopStory returns the highest ranked eligible self post in subreddit for the
// configured time filter. Stickied, removed, empty, and (unless allowed) NSFW
// posts are skipped.
func (c *Client) TopStory(ctx context.Context, subreddit string) (Story, error) {
	stories, err := c.TopStories(ctx, subreddit)
	if err != nil {
		return Story{}, err
	}
	if len(stories) == 0 {
		return Story{}, fmt.Errorf("%w in r/%s", ErrNoStory, normalizeSubreddit(subreddit))
	}
	return stories[0], nil
}

// TopStories returns every eligible post from the top listing, in listing order.
func (c *Client) TopStories(ctx context.Context, subreddit string) ([]Story, error) {
	subreddit = normalizeSubreddit(subreddit)
	if subreddit == "" {
		return nil, errors.New("reddit: subreddit required")
	}
	listing, err := c.fetchListing(ctx, subreddit)
	if err != nil {
		return nil, err
	}
	stories := make([]Story, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if story, ok := c.eligible(child.Data); ok {
			stories = append(stories, story)
		}
	}
	return stories, nil
}

func (c *Client) eligible(p post) (Story, bool) {
	if p.Stickied || !p.IsSelf {
		return Story{}, false
	}
	if p.Over18 && !c.cfg.AllowNSFW {
		return Story{}, false
	}
	body := strings.TrimSpace(p.Selftext)
	switch body {
	case "", "[removed]", "[deleted]":
		return Story{}, false
	}
	return Story{
		ID:         p.ID,
		Subreddit:  p.Subreddit,
		Title:      strings.TrimSpace(p.Title),
		Body:       body,
		Author:     p.Author,
		Permalink:  "https://www.reddit.com" + p.Permalink,
		Score:      p.Score,
		CreatedUTC: time.Unix(int64(p.CreatedUTC), 0).UTC(),
	}, true
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	ID         string  `json:"id"`
	Subreddit  string  `json:"subreddit"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	Permalink  string  `json:"permalink"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Stickied   bool    `json:"stickied"`
	Over18     bool    `json:"over_18"`
	IsSelf     bool    `json:"is_self"`
}

func (c *Client) fetchListing(ctx context.Context, subreddit string) (listingResponse, error) {
	var listing listingResponse

	base := c.cfg.PublicBaseURL
	path := "/r/" + url.PathEscape(subreddit) + "/top.json"
	var bearer string
	if c.Authenticated() {
		token, err := c.accessToken(ctx)
		if err != nil {
			return listing, err
		}
		bearer = token
		base = c.cfg.OAuthBaseURL
		path = "/r/" + url.PathEscape(subreddit) + "/top"
	}

	query := url.Values{}
	query.Set("t", c.cfg.TimeFilter)
	query.Set("limit", strconv.Itoa(c.cfg.Candidates))
	query.Set("raw_json", "1")
	endpoint := base + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return listing, fmt.Errorf("reddit: build request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	body, err := c.do(req)
	if err != nil {
		return listing, err
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return listing, fmt.Errorf("reddit: decode listing: %w", err)
	}
	return listing, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("reddit: build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("reddit: decode token: %w", err)
	}
	if payload.Error != "" || payload.AccessToken == "" {
		return "", &httpretry.StatusError{Service: "reddit", StatusCode: http.StatusUnauthorized, Body: firstNonEmpty(payload.Error, "empty access token")}
	}
	c.token = payload.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(payload.ExpiresIn)*time.Second - tokenExpirySkew)
	return c.token, nil
}

// IsRetriable reports whether err is a rate limit, server failure or
// timeout worth trying again later.
func IsRetriable(err error) bool {
	return httpretry.Retryable(err)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("reddit: rate limiter: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("reddit: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpretry.NewStatusError("reddit", resp, body)
	}
	return body, nil
}

func normalizeSubreddit(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "/")
	value = strings.TrimPrefix(value, "r/")
	return strings.Trim(value, "/")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
