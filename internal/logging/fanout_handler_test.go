package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every member is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner); h != inner {
		t.Fatalf("expected single member returned unwrapped, got %T", h)
	}
}

func TestTeeHandlerRespectsMemberLevels(t *testing.T) {
	var console, file bytes.Buffer
	h := newTeeHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through the file member")
	}

	logger := slog.New(h)
	logger.Debug("batch item paced")
	logger.Warn("draft auto-restore failed")

	if strings.Contains(console.String(), "batch item paced") {
		t.Fatalf("console received a debug record: %q", console.String())
	}
	if !strings.Contains(console.String(), "draft auto-restore failed") {
		t.Fatalf("console missing warning: %q", console.String())
	}
	if !strings.Contains(file.String(), "batch item paced") || !strings.Contains(file.String(), "draft auto-restore failed") {
		t.Fatalf("file missing records: %q", file.String())
	}
}

func TestTeeHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	h := newTeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))

	logger := slog.New(h).With(FieldSessionID, "s-1").WithGroup("batch")
	logger.Info("item completed", slog.Int(FieldSeq, 2))

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		out := buf.String()
		if !strings.Contains(out, `"session_id":"s-1"`) || !strings.Contains(out, `"batch":{"seq":2}`) {
			t.Fatalf("%s member missing attrs: %s", name, out)
		}
	}
}

func TestTeeLogger(t *testing.T) {
	var base, extra bytes.Buffer
	logger := TeeLogger(slog.New(slog.NewJSONHandler(&base, nil)), slog.NewJSONHandler(&extra, nil))
	logger.Info("daemon started")

	if !strings.Contains(base.String(), "daemon started") || !strings.Contains(extra.String(), "daemon started") {
		t.Fatalf("expected both outputs, got base=%q extra=%q", base.String(), extra.String())
	}

	var only bytes.Buffer
	TeeLogger(nil, slog.NewJSONHandler(&only, nil)).Info("no base")
	if !strings.Contains(only.String(), "no base") {
		t.Fatalf("expected output without base, got %q", only.String())
	}
}
