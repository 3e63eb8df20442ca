package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studio/internal/services"
)

const (
	defaultEndpoint    = "https://ai.gitee.com/v1/audio/speech"
	defaultModel       = "IndexTTS-2"
	defaultVoice       = "alloy"
	defaultHTTPTimeout = 120 * time.Second
	maxErrorBody       = 4096
)

var tracer = otel.Tracer("tts-client")

// Config captures the speech endpoint settings shared by every request.
type Config struct {
	Endpoint       string
	Model          string
	Voice          string
	TimeoutSeconds int
}

// Client wraps an OpenAI-style audio/speech endpoint with voice cloning
// fields.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a speech client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Endpoint:       strings.TrimSpace(cfg.Endpoint),
			Model:          strings.TrimSpace(cfg.Model),
			Voice:          strings.TrimSpace(cfg.Voice),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.Endpoint == "" {
		client.cfg.Endpoint = defaultEndpoint
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	if client.cfg.Voice == "" {
		client.cfg.Voice = defaultVoice
	}
	return client
}

// Request is one synthesis call. The credentials travel with the request
// because the workspace form owns them.
type Request struct {
	APIKey         string
	Input          string
	PromptAudioURL string
	PromptText     string
	EmoText        string
	UseEmoText     bool
}

type speechRequest struct {
	Input          string `json:"input"`
	Model          string `json:"model"`
	PromptAudioURL string `json:"prompt_audio_url"`
	PromptText     string `json:"prompt_text"`
	Voice          string `json:"voice"`
	UseEmoText     bool   `json:"use_emo_text"`
	EmoText        string `json:"emo_text,omitempty"`
}

// Synthesize returns the audio bytes for req.
func (c *Client) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "tts_synthesize", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("tts.model", c.cfg.Model),
		attribute.Int("tts.input_chars", len([]rune(req.Input))),
		attribute.Bool("tts.use_emo_text", req.UseEmoText),
	)

	if strings.TrimSpace(req.Input) == "" {
		return nil, services.Wrap(services.ErrValidation, "tts", "synthesize", "input text required", nil)
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, services.Wrap(services.ErrValidation, "tts", "synthesize", "api key required", nil)
	}

	body := speechRequest{
		Input:          req.Input,
		Model:          c.cfg.Model,
		PromptAudioURL: req.PromptAudioURL,
		PromptText:     req.PromptText,
		Voice:          c.cfg.Voice,
		UseEmoText:     req.UseEmoText,
	}
	if emo := strings.TrimSpace(req.EmoText); req.UseEmoText && emo != "" {
		body.EmoText = emo
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tts synthesize: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(req.APIKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, services.WrapTransport("tts", "synthesize", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, services.WrapTransport("tts", "read response", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(audio) > maxErrorBody {
			audio = audio[:maxErrorBody]
		}
		statusErr := &services.StatusError{Service: "tts", StatusCode: resp.StatusCode, Body: string(audio)}
		span.RecordError(statusErr)
		return nil, services.WrapTransport("tts", "synthesize", statusErr)
	}
	if len(audio) == 0 {
		return nil, services.NewFailure(services.ErrSemantic, "empty audio response")
	}
	return audio, nil
}
