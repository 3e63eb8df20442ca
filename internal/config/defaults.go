package config

const (
	defaultConfigPath           = "~/.config/studio/config.toml"
	defaultProjectRoot          = "~/studio-projects"
	defaultStateDir             = "~/.local/share/studio"
	defaultLogDir               = "~/.local/share/studio/logs"
	defaultAPIBind              = "127.0.0.1:8765"
	defaultTTSEndpoint          = "https://ai.gitee.com/v1/audio/speech"
	defaultTTSModel             = "IndexTTS-2"
	defaultTTSVoice             = "alloy"
	defaultTTSTimeoutSeconds    = 120
	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com"
	defaultGeminiModel          = "gemini-2.5-flash-image"
	defaultGeminiTimeout        = 120
	defaultImageFormat          = "png"
	defaultWebPQuality          = 85
	defaultInvokerTimeout       = 130
	defaultBatchPacingMS        = 500
	defaultCopywritingWebhook   = "http://localhost:5678/webhook/bilibili-summary"
	defaultCopywritingTimeout   = 300
	defaultNotifyRequestTimeout = 10
	defaultMirrorBucket         = "studio-artifacts"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectRoot: defaultProjectRoot,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		TTS: TTS{
			Endpoint:       defaultTTSEndpoint,
			Model:          defaultTTSModel,
			Voice:          defaultTTSVoice,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Gemini: Gemini{
			BaseURL:        defaultGeminiBaseURL,
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Images: Images{
			OutputFormat: defaultImageFormat,
			WebPQuality:  defaultWebPQuality,
		},
		Invoker: Invoker{
			TimeoutSeconds: defaultInvokerTimeout,
		},
		Batch: Batch{
			PacingMS: defaultBatchPacingMS,
		},
		Copywriting: Copywriting{
			WebhookURL:     defaultCopywritingWebhook,
			TimeoutSeconds: defaultCopywritingTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			BatchCompleted: true,
			Errors:         true,
		},
		Mirror: Mirror{
			Bucket: defaultMirrorBucket,
			UseSSL: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
