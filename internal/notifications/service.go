package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studio/internal/config"
)

const userAgent = "Studio-Go/0.1.0"

// Event identifies a studio milestone worth a push notification.
type Event string

const (
	EventBatchCompleted   Event = "batch_completed"
	EventGenerationFailed Event = "generation_failed"
	EventDaemonStarted    Event = "daemon_started"
	EventTestNotification Event = "test"
)

// Payload carries the event fields used to build the message.
type Payload map[string]any

// Service defines the notification surface exposed to daemon components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		batchCompleted: cfg.Notifications.BatchCompleted,
		errors:         cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	batchCompleted bool
	errors         bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if n == nil {
		return nil
	}
	switch event {
	case EventBatchCompleted:
		if !n.batchCompleted {
			return nil
		}
		completed := intValue(data, "completed")
		total := intValue(data, "total")
		priority := "default"
		if intValue(data, "failed") > 0 {
			priority = "high"
		}
		return n.send(ctx, payload{
			title:    "Studio - Batch Complete",
			message:  fmt.Sprintf("🔊 批量生成完成！成功 %d/%d 个", completed, total),
			tags:     []string{"studio", "tts", "batch"},
			priority: priority,
		})
	case EventGenerationFailed:
		if !n.errors {
			return nil
		}
		label := stringValue(data, "label")
		if label == "" {
			label = "Generation"
		}
		message := fmt.Sprintf("❌ %s failed", label)
		if name := stringValue(data, "name"); name != "" {
			message = fmt.Sprintf("❌ %s failed: %s", label, name)
		}
		if reason := stringValue(data, "error"); reason != "" {
			message += "\n" + reason
		}
		return n.send(ctx, payload{
			title:    "Studio - Generation Failed",
			message:  message,
			tags:     []string{"studio", "error"},
			priority: "high",
		})
	case EventDaemonStarted:
		message := "🎬 Studio daemon started"
		if bind := stringValue(data, "bind"); bind != "" {
			message += " on " + bind
		}
		return n.send(ctx, payload{
			title:    "Studio - Started",
			message:  message,
			tags:     []string{"studio", "daemon"},
			priority: "low",
		})
	case EventTestNotification:
		return n.send(ctx, payload{
			title:    "Studio - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"studio", "test"},
			priority: "low",
		})
	default:
		return fmt.Errorf("unsupported notification event %q", event)
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func stringValue(data Payload, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return ""
	}
}

func intValue(data Payload, key string) int {
	if data == nil {
		return 0
	}
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
