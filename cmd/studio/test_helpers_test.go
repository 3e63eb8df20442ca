package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"studio/internal/api"
	"studio/internal/config"
	"studio/internal/draft"
	"studio/internal/gateway"
	"studio/internal/testsupport"
)

// fakeDaemon serves canned daemon API responses and records draft writes.
type fakeDaemon struct {
	mu         sync.Mutex
	tasks      []api.Task
	batch      api.Batch
	drafts     map[string]json.RawMessage
	invoke     func(w http.ResponseWriter)
	started    []api.BatchStartRequest
	logQueries []string
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{drafts: map[string]json.RawMessage{}}
}

func (f *fakeDaemon) serve(t *testing.T) *httptest.Server {
	t.Helper()
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		write(w, http.StatusOK, api.TasksResponse{Success: true, Session: "sess-1", Data: f.tasks})
	})
	mux.HandleFunc("/api/batch", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Method == http.MethodPost {
			var req api.BatchStartRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			f.started = append(f.started, req)
			write(w, http.StatusAccepted, api.BatchStartResponse{Success: true, RunID: f.batch.RunID, Total: len(f.batch.Items)})
			return
		}
		write(w, http.StatusOK, api.BatchResponse{Success: true, Data: f.batch})
	})
	mux.HandleFunc("/api/default-tts-config", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, map[string]any{"success": true, "data": gateway.TTSDefaults{
			APIKey: "default-key", PromptAudioURL: "https://example.com/v.wav", PromptText: "p",
		}})
	})
	mux.HandleFunc("/api/invoke-image", func(w http.ResponseWriter, r *http.Request) {
		if f.invoke != nil {
			f.invoke(w)
			return
		}
		write(w, http.StatusOK, api.InvokeResponse{Success: true, TaskID: "character-text-1", FilePath: "/p/image/character/hero.png", FileSize: 2048})
	})
	mux.HandleFunc("/api/save-draft", func(w http.ResponseWriter, r *http.Request) {
		var req gateway.DraftRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.drafts[req.ProjectPath] = req.DraftData
		f.mu.Unlock()
		write(w, http.StatusOK, api.MessageResponse{Success: true})
	})
	mux.HandleFunc("/api/load-draft", func(w http.ResponseWriter, r *http.Request) {
		var req gateway.DraftRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		data, ok := f.drafts[req.ProjectPath]
		f.mu.Unlock()
		if !ok {
			write(w, http.StatusNotFound, api.ErrorResponse{Message: "没有找到保存的草稿", Kind: "not_found"})
			return
		}
		snap, _ := draft.Decode(data)
		write(w, http.StatusOK, gateway.DraftResponse{Success: true, Data: &snap})
	})
	mux.HandleFunc("/api/clear-draft", func(w http.ResponseWriter, r *http.Request) {
		var req gateway.DraftRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		delete(f.drafts, req.ProjectPath)
		f.mu.Unlock()
		write(w, http.StatusOK, api.MessageResponse{Success: true})
	})
	mux.HandleFunc("/api/logs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logQueries = append(f.logQueries, r.URL.RawQuery)
		f.mu.Unlock()
		write(w, http.StatusOK, api.LogsResponse{Success: true, Lines: []string{"line one", "line two"}, Offset: 18})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeTestConfig writes a config rooted in temp directories and returns its path.
func writeTestConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := config.Write(path, cfg); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, cfg
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// cli runs a command against srv with a fresh temp config.
func cli(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	path, _ := writeTestConfig(t)
	full := append([]string{"--config", path, "--api", srv.URL}, args...)
	return runCLI(t, stdin, full...)
}
