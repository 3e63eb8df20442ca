package api

import (
	"time"

	"studio/internal/batch"
	"studio/internal/preflight"
	"studio/internal/registry"
)

// FromTask converts a registry task.
func FromTask(task registry.Task) Task {
	return Task{
		ID:        task.ID,
		Category:  string(task.Category),
		Label:     task.Category.Label(),
		StartedAt: formatTime(task.StartedAt),
	}
}

// FromTasks converts tasks, returning an empty (never nil) slice.
func FromTasks(tasks []registry.Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, FromTask(task))
	}
	return out
}

// FromBatchSnapshot converts a pipeline snapshot.
func FromBatchSnapshot(snap batch.Snapshot) Batch {
	items := make([]BatchItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, BatchItem{
			Seq:       item.Seq,
			Text:      item.Text,
			AuxText:   item.AuxText,
			Status:    string(item.Status),
			Message:   item.Message,
			Filename:  item.Filename,
			UpdatedAt: formatTime(item.UpdatedAt),
		})
	}
	return Batch{
		RunID:       snap.RunID,
		ProjectPath: snap.ProjectPath,
		Running:     snap.Running,
		StartedAt:   formatTime(snap.StartedAt),
		FinishedAt:  formatTime(snap.FinishedAt),
		Items:       items,
		Report:      snap.Report,
	}
}

// FromPreflight converts readiness results.
func FromPreflight(results []preflight.Result) []PreflightCheck {
	out := make([]PreflightCheck, 0, len(results))
	for _, r := range results {
		out = append(out, PreflightCheck{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// ParseTime reads a timestamp written by this package. Empty or malformed
// values yield the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
