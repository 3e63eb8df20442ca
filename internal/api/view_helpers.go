package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// TaskAge renders how long ago a task started, e.g. "12 seconds ago".
func TaskAge(task Task, now time.Time) string {
	started := ParseTime(task.StartedAt)
	if started.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(started, now, "ago", "from now")
}

// FileSize renders a byte count for tables.
func FileSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

// BatchProgress renders a running batch as "done/total" and a finished one
// as "completed/total succeeded", adding the failed count when non-zero.
func BatchProgress(b Batch) string {
	total := b.Report.Total
	if total == 0 {
		total = len(b.Items)
	}
	var out string
	if !b.Running && b.Report.Total > 0 {
		out = b.Report.String()
	} else {
		done := 0
		for _, item := range b.Items {
			if item.Status == "completed" || item.Status == "failed" {
				done++
			}
		}
		out = fmt.Sprintf("%d/%d", done, total)
	}
	if b.Report.Failed > 0 {
		out += fmt.Sprintf(" (%d failed)", b.Report.Failed)
	}
	return out
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
