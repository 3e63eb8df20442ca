package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Upstream credentials are not
// required here: the gateway reports a missing key per request so the daemon
// can still serve drafts and history without them.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateUpstreams(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateMirror(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateUpstreams() error {
	if err := validateHTTPURL("tts.endpoint", c.TTS.Endpoint); err != nil {
		return err
	}
	if err := validateHTTPURL("gemini.base_url", c.Gemini.BaseURL); err != nil {
		return err
	}
	if c.Copywriting.WebhookURL != "" {
		if err := validateHTTPURL("copywriting.webhook_url", c.Copywriting.WebhookURL); err != nil {
			return err
		}
	}
	return ensurePositiveMap(map[string]int{
		"tts.timeout_seconds":           c.TTS.TimeoutSeconds,
		"gemini.timeout_seconds":        c.Gemini.TimeoutSeconds,
		"copywriting.timeout_seconds":   c.Copywriting.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateImages() error {
	switch c.Images.OutputFormat {
	case "png", "webp":
	default:
		return fmt.Errorf("images.output_format must be png or webp, got %q", c.Images.OutputFormat)
	}
	if c.Images.WebPQuality < 1 || c.Images.WebPQuality > 100 {
		return errors.New("images.webp_quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateTiming() error {
	if c.Batch.PacingMS < 0 {
		return errors.New("batch.pacing_ms must be >= 0")
	}
	if c.Invoker.TimeoutSeconds <= 0 {
		return errors.New("invoker.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMirror() error {
	if !c.Mirror.Enabled {
		return nil
	}
	if c.Mirror.Endpoint == "" {
		return errors.New("mirror.endpoint is required when mirror.enabled is true")
	}
	if strings.Contains(c.Mirror.Endpoint, "://") {
		return errors.New("mirror.endpoint must be host[:port] without a scheme")
	}
	if c.Mirror.AccessKey == "" || c.Mirror.SecretKey == "" {
		return errors.New("mirror.access_key and mirror.secret_key are required when mirror.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func validateHTTPURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", field)
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
