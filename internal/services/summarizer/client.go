package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studio/internal/services"
)

const (
	defaultHTTPTimeout = 300 * time.Second
	maxErrorBody       = 4096
	noSubtitlesMarker  = "无法提取视频字幕"
)

// ErrNoSubtitles means the video has no subtitles to summarize.
var ErrNoSubtitles = services.NewFailure(services.ErrValidation, "找不到字幕，无法提取视频字幕，换个视频吧")

// Result is the generated copywriting. Both halves are passed through as the
// webhook produced them.
type Result struct {
	TTS   json.RawMessage `json:"TTS文案"`
	Image json.RawMessage `json:"图像文案"`
}

// Client posts video links to the summarizer webhook.
type Client struct {
	webhookURL string
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

// NewClient constructs a summarizer client for webhookURL.
func NewClient(webhookURL string, timeoutSeconds int, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	client := &Client{
		webhookURL: strings.TrimSpace(webhookURL),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Summarize asks the webhook for copywriting derived from videoURL.
func (c *Client) Summarize(ctx context.Context, videoURL string) (Result, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return Result{}, services.NewFailure(services.ErrValidation, "请输入视频链接")
	}
	if c.webhookURL == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "summarizer", "summarize", "webhook url not configured", nil)
	}

	payload, err := json.Marshal(map[string]string{"videoUrl": videoURL})
	if err != nil {
		return Result{}, fmt.Errorf("summarize: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("summarize: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, services.WrapTransport("summarizer", "summarize", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, services.WrapTransport("summarizer", "read response", err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		var marker struct {
			Res string `json:"res"`
		}
		if json.Unmarshal(body, &marker) == nil && marker.Res == noSubtitlesMarker {
			return Result{}, ErrNoSubtitles
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return Result{}, services.WrapTransport("summarizer", "summarize",
			&services.StatusError{Service: "summarizer", StatusCode: resp.StatusCode, Body: string(body)})
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return Result{}, fmt.Errorf("%w: %w", services.NewFailure(services.ErrSemantic, "响应数据格式不正确"), err)
	}
	if isEmpty(result.TTS) || isEmpty(result.Image) {
		return Result{}, services.NewFailure(services.ErrSemantic, "响应数据格式不正确")
	}
	return result, nil
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null" || trimmed == `""`
}
