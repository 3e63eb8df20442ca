package testsupport

import (
	"path/filepath"
	"testing"

	"studio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials are filled with placeholders and upstream URLs point nowhere
// until a test overrides them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ProjectRoot = filepath.Join(base, "projects")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.TTS.APIKey = "tts-test-key"
	cfgVal.TTS.PromptAudioURL = "https://example.com/voice.wav"
	cfgVal.TTS.PromptText = "示例"
	cfgVal.Gemini.APIKey = "gemini-test-key"
	cfgVal.Batch.PacingMS = 0
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGeminiBaseURL points the image client at a fake upstream.
func WithGeminiBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.BaseURL = url
	}
}

// WithTTSEndpoint points the speech client at a fake upstream.
func WithTTSEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TTS.Endpoint = url
	}
}

// WithWebhookURL points the copywriting summarizer at a fake upstream.
func WithWebhookURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Copywriting.WebhookURL = url
	}
}

// WithAPIToken enables bearer auth on the gateway.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// ProjectDir returns a project directory under the config's project root.
func ProjectDir(cfg *config.Config, name string) string {
	return filepath.Join(cfg.Paths.ProjectRoot, name)
}
