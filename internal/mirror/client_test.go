package mirror_test

import (
	"context"
	"testing"

	"studio/internal/mirror"
	"studio/internal/testsupport"
)

func TestNewReturnsDisabledByDefault(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	up, err := mirror.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := up.(mirror.Disabled); !ok {
		t.Fatalf("expected disabled uploader, got %T", up)
	}
	url, err := up.Upload(context.Background(), "k", []byte("x"), "text/plain")
	if err != nil || url != "" {
		t.Fatalf("disabled Upload = %q, %v", url, err)
	}
}

func TestNewBuildsClientWhenEnabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Mirror.Enabled = true
	cfg.Mirror.Endpoint = "127.0.0.1:9000"
	cfg.Mirror.AccessKey = "minio"
	cfg.Mirror.SecretKey = "minio123"
	cfg.Mirror.Bucket = "studio"
	up, err := mirror.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := up.(*mirror.Client); !ok {
		t.Fatalf("expected minio client, got %T", up)
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		project, rel, want string
	}{
		{"demo", "tts/3.wav", "demo/tts/3.wav"},
		{"demo", "image\\character\\hero.png", "demo/image/character/hero.png"},
		{"demo", "../../escape.png", "demo/escape.png"},
		{"", "tts/1.wav", "tts/1.wav"},
	}
	for _, tc := range tests {
		if got := mirror.ObjectKey(tc.project, tc.rel); got != tc.want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", tc.project, tc.rel, got, tc.want)
		}
	}
}
