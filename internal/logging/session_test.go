package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"studio/internal/logging"
)

func TestWithSessionStampsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.WithSession(slog.New(slog.NewJSONHandler(&buf, nil)), "session-abc")

	logger.With("extra", "value").WithGroup("batch").Info("item completed", slog.Int(logging.FieldSeq, 1))

	out := buf.String()
	for _, want := range []string{`"session_id":"session-abc"`, `"extra":"value"`, `"batch":{"seq":1}`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output, got: %s", want, out)
		}
	}
}

func TestWithSessionEmptyIDReturnsLogger(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	if got := logging.WithSession(logger, ""); got != logger {
		t.Fatal("expected logger to be returned unchanged for empty session id")
	}
	if logging.WithSession(nil, "abc") == nil {
		t.Fatal("expected a no-op logger for nil input")
	}
}
