package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"studio/internal/config"
	"studio/internal/deps"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCredentialHidesValue(t *testing.T) {
	result := CheckCredential("Gemini API key", "secret-value")
	if !result.Passed {
		t.Fatal("expected pass")
	}
	if strings.Contains(result.Detail, "secret") {
		t.Fatalf("detail leaks the credential: %q", result.Detail)
	}
	if CheckCredential("Gemini API key", "  ").Passed {
		t.Fatal("expected failure for blank credential")
	}
}

func TestCheckEndpoint_AnyStatusIsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	result := CheckEndpoint(context.Background(), "Webhook", srv.URL+"/webhook/bilibili-summary")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckEndpoint_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	result := CheckEndpoint(context.Background(), "Webhook", addr)
	if result.Passed {
		t.Fatal("expected failure for closed server")
	}
}

func TestCheckEndpoint_InvalidURL(t *testing.T) {
	if CheckEndpoint(context.Background(), "Webhook", "").Passed {
		t.Fatal("expected failure for missing URL")
	}
	if CheckEndpoint(context.Background(), "Webhook", "not a url").Passed {
		t.Fatal("expected failure for invalid URL")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.ProjectRoot = t.TempDir()
	cfg.Gemini.APIKey = "g"
	cfg.TTS.APIKey = "t"
	cfg.Copywriting.WebhookURL = ""

	results := RunAll(context.Background(), &cfg)
	// state + log + project root + two credentials + folder opener
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_ReportsMissingCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Paths.ProjectRoot = ""
	cfg.Gemini.APIKey = ""
	cfg.TTS.APIKey = ""
	cfg.Copywriting.WebhookURL = ""

	failed := Failed(RunAll(context.Background(), &cfg))
	if len(failed) != 2 {
		t.Fatalf("expected 2 failures, got %+v", failed)
	}
}

func TestCheckBinaries_OptionalMissingStillPasses(t *testing.T) {
	results := CheckBinaries([]deps.Requirement{
		{Name: "Opener", Command: "clearly-not-present-binary", Optional: true},
		{Name: "Required", Command: "clearly-not-present-binary"},
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Passed || !strings.Contains(results[0].Detail, "optional") {
		t.Fatalf("optional binary should pass with a note: %+v", results[0])
	}
	if results[1].Passed {
		t.Fatalf("required binary should fail: %+v", results[1])
	}
}
