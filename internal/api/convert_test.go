package api_test

import (
	"testing"
	"time"

	"studio/internal/api"
	"studio/internal/batch"
	"studio/internal/preflight"
	"studio/internal/registry"
)

func TestFromTask(t *testing.T) {
	started := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	got := api.FromTask(registry.Task{
		ID:        "character-text-1",
		Category:  registry.CategoryCharacterText,
		StartedAt: started,
	})
	if got.Category != "character-image-by-text" {
		t.Fatalf("category = %q", got.Category)
	}
	if got.Label != "Character Image By Text" {
		t.Fatalf("label = %q", got.Label)
	}
	if !api.ParseTime(got.StartedAt).Equal(started) {
		t.Fatalf("started_at = %q", got.StartedAt)
	}
}

func TestFromTasksNeverNil(t *testing.T) {
	if got := api.FromTasks(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}

func TestFromBatchSnapshot(t *testing.T) {
	snap := batch.Snapshot{
		RunID:   "run-1",
		Running: false,
		Items: []batch.Item{
			{Seq: 1, Text: "a", Status: batch.StatusCompleted, Filename: "1.wav"},
			{Seq: 2, Text: "b", Status: batch.StatusFailed, Message: "boom"},
		},
		Report: batch.Report{Completed: 1, Failed: 1, Total: 2},
	}
	got := api.FromBatchSnapshot(snap)
	if got.RunID != "run-1" || len(got.Items) != 2 {
		t.Fatalf("unexpected batch %+v", got)
	}
	if got.Items[1].Status != "failed" || got.Items[1].Message != "boom" {
		t.Fatalf("unexpected item %+v", got.Items[1])
	}
	if got.StartedAt != "" || got.FinishedAt != "" {
		t.Fatalf("zero times should be omitted, got %q/%q", got.StartedAt, got.FinishedAt)
	}
	if api.BatchProgress(got) != "1/2 succeeded (1 failed)" {
		t.Fatalf("progress = %q", api.BatchProgress(got))
	}
}

func TestBatchProgressFinishedCountsSuccesses(t *testing.T) {
	b := api.Batch{RunID: "run-2", Report: batch.Report{Completed: 2, Failed: 1, Total: 3}}
	if got := api.BatchProgress(b); got != "2/3 succeeded (1 failed)" {
		t.Fatalf("progress = %q", got)
	}
}

func TestBatchProgressRunningCountsSettledItems(t *testing.T) {
	b := api.Batch{
		RunID:   "run-3",
		Running: true,
		Items: []api.BatchItem{
			{Seq: 1, Status: "completed"},
			{Seq: 2, Status: "failed"},
			{Seq: 3, Status: "running"},
		},
	}
	if got := api.BatchProgress(b); got != "2/3" {
		t.Fatalf("progress = %q", got)
	}
}

func TestFromPreflight(t *testing.T) {
	got := api.FromPreflight([]preflight.Result{{Name: "State directory", Passed: true, Detail: "ok"}})
	if len(got) != 1 || got[0].Name != "State directory" || !got[0].Passed {
		t.Fatalf("unexpected checks %+v", got)
	}
}

func TestViewHelpers(t *testing.T) {
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	task := api.Task{StartedAt: now.Add(-90 * time.Second).Format(time.RFC3339Nano)}
	if got := api.TaskAge(task, now); got != "1 minute ago" {
		t.Fatalf("age = %q", got)
	}
	if got := api.TaskAge(api.Task{}, now); got != "unknown" {
		t.Fatalf("age of unknown = %q", got)
	}
	if got := api.FileSize(0); got != "-" {
		t.Fatalf("size = %q", got)
	}
	if got := api.FileSize(2048); got != "2.0 kB" {
		t.Fatalf("size = %q", got)
	}
	if got := api.Truncate("第一句台词很长很长", 4); got != "第一句…" {
		t.Fatalf("truncate = %q", got)
	}
}
