package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"studio/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STUDIO_TTS_API_KEY",
		"STUDIO_GEMINI_API_KEY",
		"GEMINI_API_KEY",
		"STUDIO_API_TOKEN",
		"STUDIO_MIRROR_ACCESS_KEY",
		"STUDIO_MIRROR_SECRET_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, ".local", "share", "studio"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if want := filepath.Join(tempHome, "studio-projects"); cfg.Paths.ProjectRoot != want {
		t.Fatalf("unexpected project root: got %q want %q", cfg.Paths.ProjectRoot, want)
	}
	if cfg.API.Bind != "127.0.0.1:8765" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.BatchPacing().Milliseconds() != 500 {
		t.Fatalf("expected 500ms pacing, got %s", cfg.BatchPacing())
	}
	if cfg.Gemini.TimeoutSeconds != 120 {
		t.Fatalf("expected 120s gemini timeout, got %d", cfg.Gemini.TimeoutSeconds)
	}
	if cfg.InvokerTimeout() <= 120*time.Second {
		t.Fatalf("expected invoker timeout above the gemini timeout, got %s", cfg.InvokerTimeout())
	}
	if cfg.TTS.Model != "IndexTTS-2" || cfg.TTS.Voice != "alloy" {
		t.Fatalf("unexpected tts defaults: %+v", cfg.TTS)
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.StateDir, "studio.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearCredentialEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "studio.toml")

	type payload struct {
		TTS struct {
			APIKey         string `toml:"api_key"`
			PromptAudioURL string `toml:"prompt_audio_url"`
		} `toml:"tts"`
		Batch struct {
			PacingMS int `toml:"pacing_ms"`
		} `toml:"batch"`
		Gemini struct {
			BaseURL string `toml:"base_url"`
		} `toml:"gemini"`
	}
	custom := payload{}
	custom.TTS.APIKey = "  abc123 "
	custom.TTS.PromptAudioURL = "https://example.com/voice.wav"
	custom.Batch.PacingMS = 0
	custom.Gemini.BaseURL = "https://proxy.example.com/"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.TTS.APIKey != "abc123" {
		t.Fatalf("expected trimmed key from file, got %q", cfg.TTS.APIKey)
	}
	if cfg.Batch.PacingMS != 0 {
		t.Fatalf("expected explicit zero pacing to be kept, got %d", cfg.Batch.PacingMS)
	}
	if cfg.Gemini.BaseURL != "https://proxy.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Gemini.BaseURL)
	}
}

func TestEnvFallbackFillsMissingKeys(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STUDIO_TTS_API_KEY", "env-tts")
	t.Setenv("GEMINI_API_KEY", "env-gemini")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TTS.APIKey != "env-tts" {
		t.Errorf("expected tts key from env, got %q", cfg.TTS.APIKey)
	}
	if cfg.Gemini.APIKey != "env-gemini" {
		t.Errorf("expected gemini key from env, got %q", cfg.Gemini.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[batch]") {
		t.Fatalf("sample config missing batch section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Batch.PacingMS != 500 {
		t.Fatalf("expected sample pacing 500, got %d", cfg.Batch.PacingMS)
	}
	if !strings.Contains(cfg.Paths.StateDir, "studio") {
		t.Fatalf("expected state dir to contain studio, got %q", cfg.Paths.StateDir)
	}
}

func TestSampleLoadsAndValidates(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative pacing", func(c *config.Config) { c.Batch.PacingMS = -1 }},
		{"zero invoker timeout", func(c *config.Config) { c.Invoker.TimeoutSeconds = 0 }},
		{"bad bind", func(c *config.Config) { c.API.Bind = "localhost" }},
		{"bad image format", func(c *config.Config) { c.Images.OutputFormat = "gif" }},
		{"bad webp quality", func(c *config.Config) { c.Images.WebPQuality = 101 }},
		{"bad tts endpoint", func(c *config.Config) { c.TTS.Endpoint = "ftp://example.com" }},
		{"zero gemini timeout", func(c *config.Config) { c.Gemini.TimeoutSeconds = 0 }},
		{"mirror without endpoint", func(c *config.Config) { c.Mirror.Enabled = true }},
		{"mirror with scheme", func(c *config.Config) {
			c.Mirror.Enabled = true
			c.Mirror.Endpoint = "https://minio.local:9000"
			c.Mirror.AccessKey = "a"
			c.Mirror.SecretKey = "b"
		}},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestImportLegacyEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	body := strings.Join([]string{
		`TTS-API-KEY: "tts-key"`,
		`TTS-Prompt-Audio-URL: "https://example.com/a.wav"`,
		`TTS-Prompt-Text: "你好"`,
		`Default-Project-Root: "/data/projects"`,
		`Gemini-API-KEY: "gem-key"`,
		`Gemini-BASE-URL: "https://proxy.example.com/"`,
		`Gemini-MODEL: ""`,
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write env.yaml: %v", err)
	}

	env, err := config.ReadLegacyEnv(path)
	if err != nil {
		t.Fatalf("ReadLegacyEnv: %v", err)
	}
	cfg := config.Default()
	changed := cfg.ImportLegacyEnv(env)

	if cfg.TTS.APIKey != "tts-key" || cfg.TTS.PromptText != "你好" {
		t.Fatalf("unexpected tts after import: %+v", cfg.TTS)
	}
	if cfg.Gemini.BaseURL != "https://proxy.example.com" {
		t.Fatalf("unexpected gemini base url %q", cfg.Gemini.BaseURL)
	}
	if cfg.Gemini.Model != config.Default().Gemini.Model {
		t.Fatalf("blank legacy model should keep default, got %q", cfg.Gemini.Model)
	}
	if len(changed) != 6 {
		t.Fatalf("expected 6 changed keys, got %v", changed)
	}

	out := filepath.Join(t.TempDir(), "config.toml")
	if err := config.Write(out, &cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	reloaded, _, _, err := config.Load(out)
	if err != nil {
		t.Fatalf("reload written config: %v", err)
	}
	if reloaded.TTS.PromptAudioURL != "https://example.com/a.wav" {
		t.Fatalf("unexpected reloaded prompt audio %q", reloaded.TTS.PromptAudioURL)
	}
}

func TestReadLegacyEnvMissingFile(t *testing.T) {
	if _, err := config.ReadLegacyEnv(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
