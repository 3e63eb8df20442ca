package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"studio/internal/api"
	"studio/internal/batch"
	"studio/internal/config"
	"studio/internal/draft"
	"studio/internal/registry"
)

func TestTasksCommand(t *testing.T) {
	fake := newFakeDaemon()
	srv := fake.serve(t)

	out, err := cli(t, srv, "", "tasks")
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if !strings.Contains(out, "No generations in flight") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	fake.tasks = []api.Task{{
		ID:        "character-text-1",
		Category:  string(registry.CategoryCharacterText),
		Label:     registry.CategoryCharacterText.Label(),
		StartedAt: time.Now().Add(-time.Minute).UTC().Format(time.RFC3339Nano),
	}}
	out, err = cli(t, srv, "", "tasks")
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	for _, want := range []string{"character-text-1", "Character Image By Text", "sess-1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestControlsReflectLiveTasks(t *testing.T) {
	fake := newFakeDaemon()
	fake.tasks = []api.Task{{ID: "background-reference-9", Category: string(registry.CategoryBackgroundReference)}}
	srv := fake.serve(t)

	out, err := cli(t, srv, "", "controls", "--json")
	if err != nil {
		t.Fatalf("controls: %v", err)
	}
	var rows []controlRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 controls, got %d", len(rows))
	}
	for _, row := range rows {
		wantBusy := row.ID == "btn-background-ref-generate"
		if row.Busy != wantBusy {
			t.Fatalf("control %s busy=%v", row.ID, row.Busy)
		}
		if wantBusy && row.TaskID != "background-reference-9" {
			t.Fatalf("busy control task = %q", row.TaskID)
		}
	}
}

func TestBatchStartWaitsAndRenders(t *testing.T) {
	fake := newFakeDaemon()
	fake.batch = api.Batch{
		RunID:   "run-1",
		Running: false,
		Items: []api.BatchItem{
			{Seq: 1, Text: "第一句", Status: string(batch.StatusCompleted), Filename: "1.wav"},
			{Seq: 2, Text: "第二句", Status: string(batch.StatusFailed), Message: "upstream 500"},
		},
		Report: batch.Report{Completed: 1, Failed: 1, Total: 2},
	}
	srv := fake.serve(t)

	out, err := cli(t, srv, "", "batch", "start", "--project", "/p", "--input", "第一句\n第二句", "--wait", "--poll", "10ms")
	if err != nil {
		t.Fatalf("batch start: %v", err)
	}
	for _, want := range []string{"Batch run-1 started with 2 items", "1.wav", "upstream 500", "1/2 succeeded", "1 failed", "批量生成完成！成功 1/2 个"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if len(fake.started) != 1 || fake.started[0].APIKey != "default-key" {
		t.Fatalf("credentials were not defaulted: %+v", fake.started)
	}
}

func TestBatchStatusEmpty(t *testing.T) {
	srv := newFakeDaemon().serve(t)
	out, err := cli(t, srv, "", "batch", "status")
	if err != nil {
		t.Fatalf("batch status: %v", err)
	}
	if !strings.Contains(out, "No batch runs yet") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestInvokeConflictAddsHint(t *testing.T) {
	fake := newFakeDaemon()
	fake.invoke = func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Message: "control btn-character-text-generate is busy", Kind: "conflict"})
	}
	srv := fake.serve(t)

	_, err := cli(t, srv, "", "invoke", "--project", "/p", "--name", "hero", "--prompt", "x")
	if err == nil || !strings.Contains(err.Error(), "studio tasks") {
		t.Fatalf("expected busy hint, got %v", err)
	}
}

func TestInvokeSuccess(t *testing.T) {
	srv := newFakeDaemon().serve(t)
	out, err := cli(t, srv, "", "invoke", "--project", "/p", "--name", "hero", "--prompt", "x")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !strings.Contains(out, "hero.png") || !strings.Contains(out, "2.0 kB") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDraftSaveRestoreClear(t *testing.T) {
	fake := newFakeDaemon()
	srv := fake.serve(t)
	project := t.TempDir()
	fields := filepath.Join(project, "form.json")

	form := draft.NewFieldSet()
	form.SetText("characterName", "hero")
	form.SetFlag("characterResultContainerVisible", true)
	if err := form.Save(fields); err != nil {
		t.Fatal(err)
	}

	out, err := cli(t, srv, "", "draft", "save", "--project", project, "--fields", fields)
	if err != nil {
		t.Fatalf("draft save: %v", err)
	}
	if !strings.Contains(out, "草稿已保存") {
		t.Fatalf("missing save banner:\n%s", out)
	}

	if err := os.Remove(fields); err != nil {
		t.Fatal(err)
	}
	out, err = cli(t, srv, "", "draft", "restore", "--project", project, "--fields", fields)
	if err != nil {
		t.Fatalf("draft restore: %v", err)
	}
	if !strings.Contains(out, "草稿已恢复") {
		t.Fatalf("missing restore banner:\n%s", out)
	}
	restored, err := draft.LoadFieldSet(fields)
	if err != nil {
		t.Fatal(err)
	}
	if name, _ := restored.Text("characterName"); name != "hero" {
		t.Fatalf("characterName = %q", name)
	}
	if visible, _ := restored.Flag("characterResultContainerVisible"); !visible {
		t.Fatal("container flag not restored")
	}

	out, err = cli(t, srv, "n\n", "draft", "clear", "--project", project)
	if err != nil {
		t.Fatalf("draft clear (declined): %v", err)
	}
	if !strings.Contains(out, "Draft kept") || len(fake.drafts) != 1 {
		t.Fatalf("declined clear touched the draft:\n%s", out)
	}

	if _, err := cli(t, srv, "", "draft", "clear", "--project", project, "--yes"); err != nil {
		t.Fatalf("draft clear: %v", err)
	}
	if len(fake.drafts) != 0 {
		t.Fatal("draft not cleared")
	}

	out, err = cli(t, srv, "", "draft", "restore", "--project", project, "--fields", fields, "--auto")
	if err != nil {
		t.Fatalf("automatic restore of missing draft: %v", err)
	}
	if strings.TrimSpace(out) != "" {
		t.Fatalf("automatic restore should be silent, got:\n%s", out)
	}
}

func TestDraftFieldPathDefault(t *testing.T) {
	flags := draftFlags{project: "/p"}
	if got := flags.fieldPath(); got != filepath.Join("/p", ".draft", "fields.json") {
		t.Fatalf("fieldPath = %q", got)
	}
}

func TestConfigImportEnv(t *testing.T) {
	path, _ := writeTestConfig(t)
	envPath := filepath.Join(filepath.Dir(path), "env.yaml")
	env := "TTS-API-KEY: legacy-tts\nGemini-MODEL: gemini-legacy\n"
	if err := os.WriteFile(envPath, []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "--config", path, "config", "import-env", envPath)
	if err != nil {
		t.Fatalf("import-env: %v", err)
	}
	if !strings.Contains(out, "tts.api_key") || !strings.Contains(out, "gemini.model") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cfg.TTS.APIKey != "legacy-tts" || cfg.Gemini.Model != "gemini-legacy" {
		t.Fatalf("values not written: %+v %+v", cfg.TTS, cfg.Gemini)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, err := runCLI(t, "", "config", "init", "--path", target); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}
	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal without --overwrite")
	}
}

func TestStatusOffline(t *testing.T) {
	srv := newFakeDaemon().serve(t)
	url := srv.URL
	srv.Close()

	path, _ := writeTestConfig(t)
	out, err := runCLI(t, "", "--config", path, "--api", url, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Not running") || !strings.Contains(out, "Preflight") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLogsCommandPrintsTail(t *testing.T) {
	fake := newFakeDaemon()
	srv := fake.serve(t)

	out, err := cli(t, srv, "", "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "line one\nline two\n" {
		t.Fatalf("unexpected output: %q", out)
	}
	if len(fake.logQueries) != 1 || !strings.Contains(fake.logQueries[0], "limit=2") || !strings.Contains(fake.logQueries[0], "offset=-1") {
		t.Fatalf("unexpected queries: %#v", fake.logQueries)
	}
}

func TestLogsCommandRejectsNegativeLines(t *testing.T) {
	fake := newFakeDaemon()
	srv := fake.serve(t)

	if _, err := cli(t, srv, "", "logs", "-n", "-3"); err == nil {
		t.Fatal("expected error for negative line count")
	}
}
