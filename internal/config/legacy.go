package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LegacyEnv mirrors the env.yaml file older installs kept next to the server.
type LegacyEnv struct {
	TTSAPIKey          string `yaml:"TTS-API-KEY"`
	TTSPromptAudioURL  string `yaml:"TTS-Prompt-Audio-URL"`
	TTSPromptText      string `yaml:"TTS-Prompt-Text"`
	DefaultProjectRoot string `yaml:"Default-Project-Root"`
	GeminiAPIKey       string `yaml:"Gemini-API-KEY"`
	GeminiBaseURL      string `yaml:"Gemini-BASE-URL"`
	GeminiModel        string `yaml:"Gemini-MODEL"`
}

// ReadLegacyEnv parses an env.yaml file.
func ReadLegacyEnv(path string) (LegacyEnv, error) {
	var env LegacyEnv
	data, err := os.ReadFile(path)
	if err != nil {
		return env, fmt.Errorf("read legacy env: %w", err)
	}
	if err := yaml.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("parse legacy env: %w", err)
	}
	return env, nil
}

// ImportLegacyEnv merges non-empty values from env into cfg and reports the
// TOML keys that changed.
func (c *Config) ImportLegacyEnv(env LegacyEnv) []string {
	var changed []string
	set := func(key string, dst *string, value string) {
		value = strings.TrimSpace(value)
		if value == "" || value == *dst {
			return
		}
		*dst = value
		changed = append(changed, key)
	}
	set("tts.api_key", &c.TTS.APIKey, env.TTSAPIKey)
	set("tts.prompt_audio_url", &c.TTS.PromptAudioURL, env.TTSPromptAudioURL)
	set("tts.prompt_text", &c.TTS.PromptText, env.TTSPromptText)
	set("paths.project_root", &c.Paths.ProjectRoot, env.DefaultProjectRoot)
	set("gemini.api_key", &c.Gemini.APIKey, env.GeminiAPIKey)
	set("gemini.base_url", &c.Gemini.BaseURL, strings.TrimRight(env.GeminiBaseURL, "/"))
	set("gemini.model", &c.Gemini.Model, env.GeminiModel)
	return changed
}
