package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"studio/internal/services"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com"
	defaultModel       = "gemini-2.5-flash-image"
	defaultHTTPTimeout = 120 * time.Second
	maxErrorBody       = 4096
)

var tracer = otel.Tracer("gemini-client")

// Config captures the runtime settings required to talk to the image model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client calls the generateContent endpoint of an image-capable Gemini model.
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

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	return client
}

// Reference is an input image sent alongside the prompt.
type Reference struct {
	MimeType string
	Data     []byte
}

// ReferenceFromFile reads path and infers its MIME type from the extension.
func ReferenceFromFile(path string) (Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Reference{}, err
	}
	return Reference{MimeType: MimeFromExt(path), Data: data}, nil
}

// MimeFromExt maps an image extension to the MIME type sent upstream. Anything
// not png, gif or webp is sent as JPEG.
func MimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Request is one image generation call.
type Request struct {
	Prompt      string
	AspectRatio string
	References  []Reference
}

// Image is the decoded first inline image of a response.
type Image struct {
	MimeType string
	Data     []byte
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio"`
}

type generationConfig struct {
	ImageConfig imageConfig `json:"imageConfig"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
}

func buildRequest(req Request) generateRequest {
	parts := make([]part, 0, len(req.References)+1)
	for _, ref := range req.References {
		mime := ref.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(ref.Data),
		}})
	}
	parts = append(parts, part{Text: req.Prompt})
	body := generateRequest{Contents: []content{{Parts: parts}}}
	if ratio := strings.TrimSpace(req.AspectRatio); ratio != "" {
		body.GenerationConfig = &generationConfig{ImageConfig: imageConfig{AspectRatio: ratio}}
	}
	return body
}

// Generate sends the prompt and reference images and returns the first image
// in the response.
func (c *Client) Generate(ctx context.Context, req Request) (Image, error) {
	ctx, span := tracer.Start(ctx, "gemini_generate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", c.cfg.Model),
		attribute.Int("gemini.references", len(req.References)),
		attribute.String("gemini.aspect_ratio", req.AspectRatio),
	)

	if strings.TrimSpace(req.Prompt) == "" {
		return Image{}, services.Wrap(services.ErrValidation, "gemini", "generate", "prompt required", nil)
	}
	if c.cfg.APIKey == "" {
		return Image{}, services.Wrap(services.ErrConfiguration, "gemini", "generate", "api key not configured", nil)
	}

	payload, err := json.Marshal(buildRequest(req))
	if err != nil {
		return Image{}, fmt.Errorf("gemini generate: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Image{}, fmt.Errorf("gemini generate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return Image{}, services.WrapTransport("gemini", "generate", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return Image{}, services.WrapTransport("gemini", "read response", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &services.StatusError{Service: "gemini", StatusCode: resp.StatusCode, Body: truncate(body)}
		span.RecordError(statusErr)
		return Image{}, services.WrapTransport("gemini", "generate", statusErr)
	}

	img, err := decodeResponse(body)
	if err != nil {
		span.RecordError(err)
		return Image{}, err
	}
	span.SetAttributes(attribute.Int("gemini.image_bytes", len(img.Data)))
	return img, nil
}

func decodeResponse(body []byte) (Image, error) {
	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Image{}, semantic("bad response format", err)
	}
	if len(parsed.Candidates) == 0 {
		return Image{}, semantic("no candidates", nil)
	}
	first := parsed.Candidates[0].Content
	if first == nil || first.Parts == nil {
		return Image{}, semantic("bad response format", nil)
	}
	for _, p := range first.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return Image{}, semantic("bad response format", err)
		}
		mime := p.InlineData.MimeType
		if mime == "" {
			mime = "image/png"
		}
		return Image{MimeType: mime, Data: data}, nil
	}
	return Image{}, semantic("no image data", nil)
}

// semantic reports an unusable response. The message is what the user sees.
func semantic(message string, err error) error {
	failure := services.NewFailure(services.ErrSemantic, message)
	if err == nil {
		return failure
	}
	return fmt.Errorf("%w: %w", failure, err)
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return string(body)
}
