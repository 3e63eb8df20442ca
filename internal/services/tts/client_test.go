package tts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"studio/internal/services"
	"studio/internal/services/tts"
	"studio/internal/testsupport"
)

func TestSynthesizeSendsCloneFields(t *testing.T) {
	upstream := testsupport.NewTTSUpstream(t, []byte("RIFFdata"))
	client := tts.NewClient(tts.Config{Endpoint: upstream.URL})

	audio, err := client.Synthesize(context.Background(), tts.Request{
		APIKey:         "secret",
		Input:          "你好世界",
		PromptAudioURL: "https://example.com/v.wav",
		PromptText:     "参考",
		EmoText:        "开心",
		UseEmoText:     true,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "RIFFdata" {
		t.Fatalf("audio = %q", audio)
	}
	if got := upstream.LastHeader().Get("Authorization"); got != "Bearer secret" {
		t.Fatalf("Authorization = %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(upstream.LastBody(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"input":            "你好世界",
		"model":            "IndexTTS-2",
		"prompt_audio_url": "https://example.com/v.wav",
		"prompt_text":      "参考",
		"voice":            "alloy",
		"use_emo_text":     true,
		"emo_text":         "开心",
	}
	for key, value := range want {
		if body[key] != value {
			t.Fatalf("%s = %v, want %v", key, body[key], value)
		}
	}
}

func TestSynthesizeOmitsEmoTextWhenDisabled(t *testing.T) {
	upstream := testsupport.NewTTSUpstream(t, []byte("x"))
	client := tts.NewClient(tts.Config{Endpoint: upstream.URL})
	if _, err := client.Synthesize(context.Background(), tts.Request{APIKey: "k", Input: "hi", EmoText: "sad"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	var body map[string]any
	_ = json.Unmarshal(upstream.LastBody(), &body)
	if _, ok := body["emo_text"]; ok {
		t.Fatalf("emo_text should be omitted: %v", body)
	}
	if body["use_emo_text"] != false {
		t.Fatalf("use_emo_text = %v", body["use_emo_text"])
	}
}

func TestSynthesizeStatusError(t *testing.T) {
	upstream := testsupport.NewStatusUpstream(t, http.StatusInternalServerError, "upstream exploded")
	client := tts.NewClient(tts.Config{Endpoint: upstream.URL})
	_, err := client.Synthesize(context.Background(), tts.Request{APIKey: "k", Input: "hi"})
	var statusErr *services.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 500 || statusErr.Body != "upstream exploded" {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSynthesizeValidatesBeforeSending(t *testing.T) {
	upstream := testsupport.NewTTSUpstream(t, []byte("x"))
	client := tts.NewClient(tts.Config{Endpoint: upstream.URL})
	if _, err := client.Synthesize(context.Background(), tts.Request{APIKey: "k"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := client.Synthesize(context.Background(), tts.Request{Input: "hi"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if upstream.Calls() != 0 {
		t.Fatalf("calls = %d", upstream.Calls())
	}
}
