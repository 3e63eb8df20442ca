package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleLine is one rendered record:
//
//	2026-01-02T15:04:05Z INFO invoker: [character-text-1] generation completed k=v
type consoleLine struct {
	ts        time.Time
	level     string
	component string
	subject   string
	msg       string
	source    string
	fields    []field
}

type field struct {
	key   string
	value string
}

// take pulls the component and the first task/run id out of the fields so
// they render in the line prefix.
func (l *consoleLine) take() {
	kept := l.fields[:0]
	for _, f := range l.fields {
		switch {
		case f.key == FieldComponent && l.component == "":
			l.component = f.value
			continue
		case (f.key == FieldTaskID || f.key == FieldRunID) && l.subject == "":
			l.subject = f.value
			continue
		}
		kept = append(kept, f)
	}
	l.fields = kept
}

func (l consoleLine) render(buf *bytes.Buffer) {
	buf.WriteString(l.ts.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(l.level)
	buf.WriteByte(' ')
	if l.component != "" {
		buf.WriteString(l.component)
		buf.WriteString(": ")
	}
	if l.subject != "" {
		buf.WriteByte('[')
		buf.WriteString(l.subject)
		buf.WriteString("] ")
	}
	if msg := strings.TrimSpace(l.msg); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if l.source != "" {
		buf.WriteString(" [")
		buf.WriteString(l.source)
		buf.WriteByte(']')
	}
	for _, f := range l.fields {
		if f.key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(f.key)
		buf.WriteByte('=')
		buf.WriteString(quoteIfNeeded(f.value))
	}
}

type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	line := consoleLine{ts: record.Time, level: levelLabel(record.Level), msg: record.Message}
	if line.ts.IsZero() {
		line.ts = time.Now()
	}
	for _, attr := range h.attrs {
		line.fields = appendAttr(line.fields, h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		line.fields = appendAttr(line.fields, h.groups, attr)
		return true
	})
	line.take()
	if h.addSource {
		if src := record.Source(); src != nil {
			line.source = filepath.Base(src.File) + ":" + strconv.Itoa(src.Line)
		}
	}

	var buf bytes.Buffer
	buf.Grow(128 + len(line.fields)*24)
	line.render(&buf)
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func appendAttr(dst []field, prefix []string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			dst = appendAttr(dst, next, member)
		}
		return dst
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), key), ".")
	}
	return append(dst, field{key: key, value: valueString(attr.Value)})
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// FormatJSONLine renders one record from a JSON session log in console form.
// Fields other than the prefix ones are printed in key order. ok is false
// when line is not a JSON log record.
func FormatJSONLine(line string) (string, bool) {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return "", false
	}
	msg, hasMsg := record["msg"].(string)
	if !hasMsg {
		return "", false
	}
	out := consoleLine{msg: msg, level: "INFO"}
	if raw, ok := record["ts"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			out.ts = ts
		}
	}
	if raw, ok := record["level"].(string); ok {
		out.level = strings.ToUpper(raw)
	}
	if raw, ok := record["source"].(string); ok {
		out.source = raw
	}
	for _, key := range []string{"ts", "level", "msg", "source"} {
		delete(record, key)
	}

	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		out.fields = appendJSONField(out.fields, key, record[key])
	}
	out.take()

	var buf bytes.Buffer
	out.render(&buf)
	return buf.String(), true
}

func appendJSONField(dst []field, key string, value any) []field {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			dst = appendJSONField(dst, key+"."+k, v[k])
		}
		return dst
	case string:
		return append(dst, field{key: key, value: v})
	case float64:
		return append(dst, field{key: key, value: strconv.FormatFloat(v, 'f', -1, 64)})
	default:
		return append(dst, field{key: key, value: fmt.Sprint(v)})
	}
}
