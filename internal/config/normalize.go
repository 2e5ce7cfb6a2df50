package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeReddit()
	c.normalizeLLM()
	c.normalizeTTS()
	c.normalizePexels()
	c.normalizeCaptions()
	c.normalizeRender()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DefaultBackground) != "" {
		if c.Paths.DefaultBackground, err = expandPath(c.Paths.DefaultBackground); err != nil {
			return fmt.Errorf("paths.default_background: %w", err)
		}
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = firstEnv(c.Paths.APIToken, "STORYREEL_API_TOKEN")
	return nil
}

func (c *Config) normalizeReddit() {
	c.Reddit.ClientID = firstEnv(c.Reddit.ClientID, "REDDIT_CLIENT_ID")
	c.Reddit.ClientSecret = firstEnv(c.Reddit.ClientSecret, "REDDIT_CLIENT_SECRET")
	c.Reddit.UserAgent = firstEnv(c.Reddit.UserAgent, "REDDIT_USER_AGENT")
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = defaultRedditUserAgent
	}
	sub := strings.TrimSpace(c.Reddit.Subreddit)
	sub = strings.TrimPrefix(strings.TrimPrefix(sub, "/"), "r/")
	if sub == "" {
		sub = defaultSubreddit
	}
	c.Reddit.Subreddit = sub
	c.Reddit.TimeFilter = strings.ToLower(strings.TrimSpace(c.Reddit.TimeFilter))
	if c.Reddit.TimeFilter == "" {
		c.Reddit.TimeFilter = defaultRedditTimeFilter
	}
	if c.Reddit.Candidates <= 0 {
		c.Reddit.Candidates = defaultRedditCandidates
	}
	if c.Reddit.RequestsPerSecond <= 0 {
		c.Reddit.RequestsPerSecond = defaultRedditRate
	}
	if c.Reddit.TimeoutSeconds <= 0 {
		c.Reddit.TimeoutSeconds = defaultRedditTimeout
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = firstEnv(c.LLM.APIKey, "STORYREEL_LLM_API_KEY", "OPENROUTER_API_KEY", "OPENAI_API_KEY")
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.MaxInputWords <= 0 {
		c.LLM.MaxInputWords = defaultLLMMaxInputWords
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.APIKey = firstEnv(c.TTS.APIKey, "TTS_API_KEY", "OPENAI_API_KEY")
	c.TTS.BaseURL = strings.TrimSpace(c.TTS.BaseURL)
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	c.TTS.Model = strings.TrimSpace(c.TTS.Model)
	if c.TTS.Model == "" {
		c.TTS.Model = defaultTTSModel
	}
	c.TTS.Voice = strings.ToLower(strings.TrimSpace(c.TTS.Voice))
	if c.TTS.Voice == "" {
		c.TTS.Voice = defaultTTSVoice
	}
	if c.TTS.Speed <= 0 {
		c.TTS.Speed = defaultTTSSpeed
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
}

func (c *Config) normalizePexels() {
	c.Pexels.APIKey = firstEnv(c.Pexels.APIKey, "PEXELS_API_KEY")
	c.Pexels.BaseURL = strings.TrimRight(strings.TrimSpace(c.Pexels.BaseURL), "/")
	if c.Pexels.BaseURL == "" {
		c.Pexels.BaseURL = defaultPexelsBaseURL
	}
	c.Pexels.Query = strings.TrimSpace(c.Pexels.Query)
	if c.Pexels.Query == "" {
		c.Pexels.Query = defaultPexelsQuery
	}
	c.Pexels.Orientation = strings.ToLower(strings.TrimSpace(c.Pexels.Orientation))
	if c.Pexels.PerPage <= 0 {
		c.Pexels.PerPage = defaultPexelsPerPage
	}
	if c.Pexels.TimeoutSeconds <= 0 {
		c.Pexels.TimeoutSeconds = defaultPexelsTimeout
	}
}

func (c *Config) normalizeCaptions() {
	if c.Captions.MinWords <= 0 {
		c.Captions.MinWords = defaultMinWords
	}
	if c.Captions.DisplaySeconds <= 0 {
		c.Captions.DisplaySeconds = defaultDisplaySeconds
	}
	if c.Captions.BandAOffset == 0 {
		c.Captions.BandAOffset = defaultBandAOffset
	}
	if c.Captions.BandBOffset == 0 {
		c.Captions.BandBOffset = defaultBandBOffset
	}
	if c.Captions.TitleTopRatio == 0 {
		c.Captions.TitleTopRatio = defaultTitleTopRatio
	}
	if c.Captions.FontSize <= 0 {
		c.Captions.FontSize = defaultFontSize
	}
	if c.Captions.TitleFontSize <= 0 {
		c.Captions.TitleFontSize = defaultTitleFontSize
	}
	if c.Captions.TitleMaxRunes <= 0 {
		c.Captions.TitleMaxRunes = defaultTitleMaxRunes
	}
	c.Captions.DefaultTitle = strings.TrimSpace(c.Captions.DefaultTitle)
	c.Captions.FontFile = strings.TrimSpace(c.Captions.FontFile)
}

func (c *Config) normalizeRender() {
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	if c.Render.Preset == "" {
		c.Render.Preset = defaultRenderPreset
	}
	c.Render.AudioBitrate = strings.TrimSpace(c.Render.AudioBitrate)
	if c.Render.AudioBitrate == "" {
		c.Render.AudioBitrate = defaultAudioBitrate
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = defaultRenderTimeout
	}
	if c.Render.MinFreeGiB < 0 {
		c.Render.MinFreeGiB = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = firstEnv(c.Notifications.NtfyTopic, "NTFY_TOPIC")
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// firstEnv trims value and, when it is empty, returns the first non-empty
// environment variable among keys.
func firstEnv(value string, keys ...string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	for _, key := range keys {
		if env, ok := os.LookupEnv(key); ok && strings.TrimSpace(env) != "" {
			return strings.TrimSpace(env)
		}
	}
	return ""
}
