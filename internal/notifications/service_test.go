package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"studio/internal/config"
	"studio/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventBatchCompleted, notifications.Payload{"completed": 1, "total": 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, chan captured) {
	t.Helper()
	ch := make(chan captured, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "batch completed",
			event:         notifications.EventBatchCompleted,
			payload:       notifications.Payload{"completed": 3, "failed": 0, "total": 3},
			expectTitle:   "Studio - Batch Complete",
			expectMessage: "🔊 批量生成完成！成功 3/3 个",
			expectTags:    "studio,tts,batch",
		},
		{
			name:           "batch completed with failures",
			event:          notifications.EventBatchCompleted,
			payload:        notifications.Payload{"completed": 2, "failed": 1, "total": 3},
			expectTitle:    "Studio - Batch Complete",
			expectMessage:  "🔊 批量生成完成！成功 2/3 个",
			expectTags:     "studio,tts,batch",
			expectPriority: "high",
		},
		{
			name:           "generation failed",
			event:          notifications.EventGenerationFailed,
			payload:        notifications.Payload{"label": "Character Text", "name": "hero", "error": "no image data"},
			expectTitle:    "Studio - Generation Failed",
			expectMessage:  "❌ Character Text failed: hero\nno image data",
			expectTags:     "studio,error",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTestNotification,
			expectTitle:    "Studio - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "studio,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, ch := newCaptureServer(t)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = srv.URL
			cfg.Notifications.BatchCompleted = true
			cfg.Notifications.Errors = true
			svc := notifications.NewService(&cfg)

			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish returned error: %v", err)
			}
			got := <-ch
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("message = %q, want %q", got.body, tc.expectMessage)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceHonorsEventToggles(t *testing.T) {
	srv, ch := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.BatchCompleted = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	if err := svc.Publish(ctx, notifications.EventBatchCompleted, notifications.Payload{"completed": 1, "total": 1}); err != nil {
		t.Fatalf("Publish batch: %v", err)
	}
	if err := svc.Publish(ctx, notifications.EventGenerationFailed, notifications.Payload{"label": "x"}); err != nil {
		t.Fatalf("Publish failure: %v", err)
	}
	select {
	case got := <-ch:
		t.Fatalf("expected no request, got %+v", got)
	default:
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTestNotification, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestBannerFunc(t *testing.T) {
	var got []string
	banner := notifications.BannerFunc(func(sev notifications.Severity, msg string) {
		got = append(got, string(sev)+":"+msg)
	})
	banner.Show(notifications.SeveritySuccess, "saved")
	notifications.DiscardBanner.Show(notifications.SeverityError, "ignored")
	if len(got) != 1 || got[0] != "success:saved" {
		t.Fatalf("unexpected banner calls: %v", got)
	}
}
