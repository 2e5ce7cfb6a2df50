package config

const (
	defaultWorkDir            = "~/.local/share/storyreel/work"
	defaultOutputDir          = "~/Videos/storyreel"
	defaultLogDir             = "~/.local/share/storyreel/logs"
	defaultAPIBind            = "127.0.0.1:7490"
	defaultRedditUserAgent    = "storyreel/dev (by /u/storyreel)"
	defaultSubreddit          = "AmItheAsshole"
	defaultRedditTimeFilter   = "day"
	defaultRedditCandidates   = 10
	defaultRedditRate         = 1.0
	defaultRedditTimeout      = 15
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "openai/gpt-4o-mini"
	defaultLLMReferer         = "https://github.com/storyreel/storyreel"
	defaultLLMTitle           = "storyreel narration"
	defaultLLMTimeoutSeconds  = 90
	defaultLLMMaxInputWords   = 500
	defaultTTSBaseURL         = "https://api.openai.com/v1/audio/speech"
	defaultTTSModel           = "tts-1"
	defaultTTSVoice           = "onyx"
	defaultTTSSpeed           = 1.0
	defaultTTSTimeoutSeconds  = 120
	defaultPexelsBaseURL      = "https://api.pexels.com/videos"
	defaultPexelsQuery        = "cinematic background"
	defaultPexelsOrientation  = "portrait"
	defaultPexelsPerPage      = 5
	defaultPexelsTimeout      = 60
	defaultMinWords           = 4
	defaultMaxWords           = 10
	defaultDisplaySeconds     = 3.0
	defaultBandAOffset        = 250
	defaultBandBOffset        = 300
	defaultTitleTopRatio      = 0.12
	defaultFontSize           = 50
	defaultTitleFontSize      = 60
	defaultTitle              = "Reddit Story"
	defaultTitleMaxRunes      = 60
	defaultRenderWidth        = 1080
	defaultRenderHeight       = 1920
	defaultRenderFPS          = 24
	defaultRenderPreset       = "ultrafast"
	defaultAudioBitrate       = "192k"
	defaultRenderTimeout      = 1800
	defaultMinFreeGiB         = 2
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			CacheDir:  defaultCacheDir(),
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Reddit: Reddit{
			UserAgent:         defaultRedditUserAgent,
			Subreddit:         defaultSubreddit,
			TimeFilter:        defaultRedditTimeFilter,
			Candidates:        defaultRedditCandidates,
			RequestsPerSecond: defaultRedditRate,
			TimeoutSeconds:    defaultRedditTimeout,
		},
		LLM: LLM{
			BaseURL:          defaultLLMBaseURL,
			Model:            defaultLLMModel,
			Referer:          defaultLLMReferer,
			Title:            defaultLLMTitle,
			TimeoutSeconds:   defaultLLMTimeoutSeconds,
			MaxInputWords:    defaultLLMMaxInputWords,
			FallbackToSource: true,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Model:          defaultTTSModel,
			Voice:          defaultTTSVoice,
			Speed:          defaultTTSSpeed,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Pexels: Pexels{
			BaseURL:        defaultPexelsBaseURL,
			Query:          defaultPexelsQuery,
			Orientation:    defaultPexelsOrientation,
			PerPage:        defaultPexelsPerPage,
			TimeoutSeconds: defaultPexelsTimeout,
		},
		Captions: Captions{
			MinWords:       defaultMinWords,
			MaxWords:       defaultMaxWords,
			DisplaySeconds: defaultDisplaySeconds,
			BandAOffset:    defaultBandAOffset,
			BandBOffset:    defaultBandBOffset,
			TitleTopRatio:  defaultTitleTopRatio,
			FontSize:       defaultFontSize,
			TitleFontSize:  defaultTitleFontSize,
			DefaultTitle:   defaultTitle,
			TitleMaxRunes:  defaultTitleMaxRunes,
		},
		Render: Render{
			Width:          defaultRenderWidth,
			Height:         defaultRenderHeight,
			FPS:            defaultRenderFPS,
			Preset:         defaultRenderPreset,
			AudioBitrate:   defaultAudioBitrate,
			TimeoutSeconds: defaultRenderTimeout,
			MinFreeGiB:     defaultMinFreeGiB,
		},
		Notifications: Notifications{
			RequestTimeout:  defaultNotifyTimeout,
			RenderCompleted: true,
			Errors:          true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
