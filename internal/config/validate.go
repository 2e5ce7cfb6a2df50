package config

import (
	"errors"
	"fmt"
)

var redditTimeFilters = map[string]struct{}{
	"hour": {}, "day": {}, "week": {}, "month": {}, "year": {}, "all": {},
}

var pexelsOrientations = map[string]struct{}{
	"": {}, "portrait": {}, "landscape": {}, "square": {},
}

// Validate ensures the configuration is usable. Credentials are not required
// here; stages that need them report their absence when they run.
func (c *Config) Validate() error {
	if err := c.validateReddit(); err != nil {
		return err
	}
	if err := c.validatePexels(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"tts.timeout_seconds":           c.TTS.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateReddit() error {
	if c.Reddit.Subreddit == "" {
		return errors.New("reddit.subreddit must be set")
	}
	if _, ok := redditTimeFilters[c.Reddit.TimeFilter]; !ok {
		return fmt.Errorf("reddit.time_filter %q must be one of hour, day, week, month, year, all", c.Reddit.TimeFilter)
	}
	if c.Reddit.Candidates > 100 {
		return errors.New("reddit.candidates must be at most 100")
	}
	if (c.Reddit.ClientID == "") != (c.Reddit.ClientSecret == "") {
		return errors.New("reddit.client_id and reddit.client_secret must be set together")
	}
	return nil
}

func (c *Config) validatePexels() error {
	if _, ok := pexelsOrientations[c.Pexels.Orientation]; !ok {
		return fmt.Errorf("pexels.orientation %q must be portrait, landscape, or square", c.Pexels.Orientation)
	}
	if c.Pexels.PerPage > 80 {
		return errors.New("pexels.per_page must be at most 80")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	cfg := c.Captions
	if cfg.MaxWords > 0 && cfg.MaxWords < cfg.MinWords {
		return errors.New("captions.max_words must be >= captions.min_words (or negative to disable)")
	}
	if cfg.TitleTopRatio <= 0 || cfg.TitleTopRatio >= 0.5 {
		return errors.New("captions.title_top_ratio must be between 0 and 0.5")
	}
	if cfg.BandAOffset <= 0 || cfg.BandBOffset <= 0 {
		return errors.New("captions.band_a_offset and captions.band_b_offset must be positive")
	}
	if cfg.BandAOffset == cfg.BandBOffset {
		return errors.New("captions.band_a_offset and captions.band_b_offset must differ")
	}
	if cfg.BandAOffset >= c.Render.Height || cfg.BandBOffset >= c.Render.Height {
		return errors.New("caption band offsets must be smaller than render.height")
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.width":           c.Render.Width,
		"render.height":          c.Render.Height,
		"render.fps":             c.Render.FPS,
		"render.timeout_seconds": c.Render.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		return errors.New("render.width and render.height must be even")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
