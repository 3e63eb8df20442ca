package summarizer_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"studio/internal/services"
	"studio/internal/services/summarizer"
	"studio/internal/testsupport"
)

func TestSummarizeReturnsBothHalves(t *testing.T) {
	upstream := testsupport.NewJSONUpstream(t, http.StatusOK, map[string]any{
		"TTS文案": []string{"第一句", "第二句"},
		"图像文案":  map[string]any{"人物": "骑士"},
	})
	client := summarizer.NewClient(upstream.URL, 5)

	result, err := client.Summarize(context.Background(), " https://b23.tv/abc ")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	var lines []string
	if err := json.Unmarshal(result.TTS, &lines); err != nil || len(lines) != 2 {
		t.Fatalf("TTS half = %s (%v)", result.TTS, err)
	}
	var sent map[string]string
	_ = json.Unmarshal(upstream.LastBody(), &sent)
	if sent["videoUrl"] != "https://b23.tv/abc" {
		t.Fatalf("videoUrl = %q", sent["videoUrl"])
	}
}

func TestSummarizeNoSubtitles(t *testing.T) {
	upstream := testsupport.NewJSONUpstream(t, http.StatusBadRequest, map[string]string{"res": "无法提取视频字幕"})
	client := summarizer.NewClient(upstream.URL, 5)
	_, err := client.Summarize(context.Background(), "https://b23.tv/abc")
	if !errors.Is(err, summarizer.ErrNoSubtitles) {
		t.Fatalf("expected ErrNoSubtitles, got %v", err)
	}
}

func TestSummarizeOtherBadRequestIsTransport(t *testing.T) {
	upstream := testsupport.NewJSONUpstream(t, http.StatusBadRequest, map[string]string{"res": "other"})
	client := summarizer.NewClient(upstream.URL, 5)
	_, err := client.Summarize(context.Background(), "https://b23.tv/abc")
	if errors.Is(err, summarizer.ErrNoSubtitles) || services.Classify(err) != services.KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestSummarizeRejectsIncompletePayload(t *testing.T) {
	upstream := testsupport.NewJSONUpstream(t, http.StatusOK, map[string]any{"TTS文案": "x"})
	client := summarizer.NewClient(upstream.URL, 5)
	_, err := client.Summarize(context.Background(), "https://b23.tv/abc")
	if !errors.Is(err, services.ErrSemantic) {
		t.Fatalf("expected semantic error, got %v", err)
	}
}

func TestSummarizeRequiresURL(t *testing.T) {
	client := summarizer.NewClient("http://127.0.0.1:1", 5)
	if _, err := client.Summarize(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
